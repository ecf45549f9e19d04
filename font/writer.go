package font

import (
	"bytes"
	"encoding/binary"
	"io"
)

type encoder struct {
	w io.Writer
}

func (e *encoder) encode(f *Font) error {
	var header [headerSize]byte

	b := header[:]
	copy(b, magic)
	b = b[len(magic):]
	b[0], b[1] = formatVersion, f.Number
	copy(b[2:2+MaxNameLength], f.Name)
	b = b[2+MaxNameLength:]
	b[0], b[1], b[2] = f.Height, f.CharSpacing, f.LineSpacing
	binary.BigEndian.PutUint16(b[3:], uint16(f.Len()))

	if _, err := e.w.Write(header[:]); err != nil {
		return err
	}

	var tmp [3]byte
	for _, g := range f.Glyphs() {
		binary.BigEndian.PutUint16(tmp[:2], g.CodePoint)
		tmp[2] = g.Width
		if _, err := e.w.Write(tmp[:]); err != nil {
			return err
		}
		if _, err := e.w.Write(g.Bitmap); err != nil {
			return err
		}
	}

	return nil
}

// Encode writes f to w in the binary font file format.
func Encode(w io.Writer, f *Font) error {
	if err := f.Validate(); err != nil {
		return err
	}
	e := encoder{w: w}
	return e.encode(f)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *Font) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	if err := Encode(b, f); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
