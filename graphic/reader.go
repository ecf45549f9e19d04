package graphic

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/bodgit/dms/sign"
)

// The binary graphic file is a fixed header followed by the bitmap:
//
//	magic       [4]byte "DMSG"
//	version     uint8
//	number      uint8
//	name        [24]byte, NUL padded
//	scheme      uint8
//	width       uint16
//	height      uint16
//	transparent uint8, 1 if the next three bytes are used
//	color       [3]byte, level or index in the first byte, or R, G, B
//	bitmap
//
// Multi-byte values are big-endian.
const (
	magic         = "DMSG"
	formatVersion = 1
	headerSize    = len(magic) + 2 + MaxNameLength + 1 + 4 + 4
)

var (
	errNotEnough  = errors.New("graphic: not enough data")
	errTooMuch    = errors.New("graphic: too much data")
	errBadMagic   = errors.New("graphic: invalid magic")
	errBadVersion = errors.New("graphic: unsupported format version")
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

	graphic *Graphic

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
	number := b[1]

	b = b[2+MaxNameLength:]
	scheme := sign.ColorScheme(b[0])
	if !scheme.Valid() {
		return errors.New("graphic: invalid color scheme")
	}
	width := int(binary.BigEndian.Uint16(b[1:]))
	height := int(binary.BigEndian.Uint16(b[3:]))
	// The bitmap is allocated as it is read so a header cannot claim
	// more memory than the input holds
	d.graphic = &Graphic{
		Number: number,
		Name:   string(name),
		Width:  width,
		Height: height,
		Scheme: scheme,
	}

	if b[5] != 0 {
		var c sign.Color
		if scheme == sign.Color24Bit {
			c = sign.RGB(b[6], b[7], b[8])
		} else {
			c = sign.Color{Scheme: scheme, Value: b[6]}
		}
		d.graphic.Transparent = &c
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

	size := BitmapSize(d.graphic.Width, d.graphic.Height, d.graphic.Scheme)
	bitmap, err := io.ReadAll(io.LimitReader(d.r, int64(size)))
	if err != nil {
		return err
	}
	if len(bitmap) < size {
		return errNotEnough
	}
	d.graphic.Bitmap = bitmap

	if n, err := r.Read(d.tmp[:1]); n != 0 || (err != io.EOF && err != io.ErrUnexpectedEOF) {
		if err != nil {
			return err
		}
		return errTooMuch
	}

	return d.graphic.Validate()
}

// Decode reads a binary graphic file from r.
func Decode(r io.Reader) (*Graphic, error) {
	var d decoder
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return d.graphic, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (g *Graphic) UnmarshalBinary(b []byte) error {
	ng, err := Decode(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*g = *ng
	return nil
}
