package graphic

import (
	"bytes"
	"encoding/binary"
	"io"
)

type encoder struct {
	w io.Writer
}

func (e *encoder) encode(g *Graphic) error {
	var header [headerSize]byte

	b := header[:]
	copy(b, magic)
	b = b[len(magic):]
	b[0], b[1] = formatVersion, g.Number
	copy(b[2:2+MaxNameLength], g.Name)
	b = b[2+MaxNameLength:]
	b[0] = byte(g.Scheme)
	binary.BigEndian.PutUint16(b[1:], uint16(g.Width))
	binary.BigEndian.PutUint16(b[3:], uint16(g.Height))
	if t := g.Transparent; t != nil {
		b[5] = 1
		b[6], b[7], b[8] = transparentBytes(*t)
	}

	if _, err := e.w.Write(header[:]); err != nil {
		return err
	}
	_, err := e.w.Write(g.Bitmap)
	return err
}

// Encode writes g to w in the binary graphic file format.
func Encode(w io.Writer, g *Graphic) error {
	if err := g.Validate(); err != nil {
		return err
	}
	e := encoder{w: w}
	return e.encode(g)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (g *Graphic) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	if err := Encode(b, g); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
