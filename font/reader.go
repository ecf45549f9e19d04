package font

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// The binary font file is a fixed header followed by one record per glyph:
//
//	magic        [4]byte "DMSF"
//	version      uint8
//	number       uint8
//	name         [24]byte, NUL padded
//	height       uint8
//	char spacing uint8
//	line spacing uint8
//	glyph count  uint16
//	glyphs       code point uint16, width uint8, bitmap
//
// Multi-byte values are big-endian.
const (
	magic         = "DMSF"
	formatVersion = 1
	headerSize    = len(magic) + 2 + MaxNameLength + 3 + 2
)

var (
	errNotEnough  = errors.New("font: not enough data")
	errTooMuch    = errors.New("font: too much data")
	errBadMagic   = errors.New("font: invalid magic")
	errBadVersion = errors.New("font: unsupported format version")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r io.Reader

	font  *Font
	count int

	tmp [headerSize]byte
}

func (d *decoder) readHeader() error {
	if err := readFull(d.r, d.tmp[:]); err != nil {
		return err
	}

	b := d.tmp[:]
	if string(b[:len(magic)]) != magic {
		return errBadMagic
	}
	b = b[len(magic):]
	if b[0] != formatVersion {
		return errBadVersion
	}

	name := b[2 : 2+MaxNameLength]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	d.font = New(b[1], string(name), 0, 0, 0)

	b = b[2+MaxNameLength:]
	d.font.Height, d.font.CharSpacing, d.font.LineSpacing = b[0], b[1], b[2]
	d.count = int(binary.BigEndian.Uint16(b[3:]))

	return nil
}

func (d *decoder) readGlyphs() error {
	for i := 0; i < d.count; i++ {
		if err := readFull(d.r, d.tmp[:3]); err != nil {
			return err
		}
		g := Glyph{
			CodePoint: binary.BigEndian.Uint16(d.tmp[:2]),
			Width:     d.tmp[2],
		}
		g.Bitmap = make([]byte, bitmapSize(int(g.Width), int(d.font.Height)))
		if err := readFull(d.r, g.Bitmap); err != nil {
			return err
		}
		if err := d.font.Add(g); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) decode(r io.Reader) error {
	d.r = r

	if err := d.readHeader(); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	if err := d.readGlyphs(); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	if n, err := r.Read(d.tmp[:1]); n != 0 || (err != io.EOF && err != io.ErrUnexpectedEOF) {
		if err != nil {
			return err
		}
		return errTooMuch
	}

	return d.font.Validate()
}

// Decode reads a binary font file from r.
func Decode(r io.Reader) (*Font, error) {
	var d decoder
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return d.font, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (f *Font) UnmarshalBinary(b []byte) error {
	nf, err := Decode(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*f = *nf
	return nil
}
