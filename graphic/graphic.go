/*
Package graphic implements the small raster images a MULTI message can
place on a sign with the [g] tag.

A graphic's bitmap is stored in the color scheme it was authored for:
monochrome 1-bit graphics are a continuous bit stream, most significant bit
first, monochrome 8-bit and classic graphics use one byte per pixel and
24-bit graphics use three bytes per pixel in R, G, B order.
*/
package graphic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/bodgit/dms/crc16"
	"github.com/bodgit/dms/raster"
	"github.com/bodgit/dms/sign"
)

const (
	// MaxGraphics is the number of distinct graphic numbers.
	MaxGraphics = 255
	// MaxNameLength is the longest graphic name, in bytes.
	MaxNameLength = 24
	// MaxSize is the largest width or height of a graphic.
	MaxSize = 0xffff
)

var errBadBitmap = errors.New("graphic: bitmap length does not match graphic size")

// Graphic is a numbered image.
type Graphic struct {
	Number      uint8
	Name        string
	Width       int
	Height      int
	Scheme      sign.ColorScheme
	Transparent *sign.Color
	Bitmap      []byte
}

// BitmapSize returns the number of bytes needed by a bitmap of the given
// size and scheme.
func BitmapSize(width, height int, scheme sign.ColorScheme) int {
	switch scheme {
	case sign.Monochrome1Bit:
		return (width*height + 7) >> 3
	case sign.Color24Bit:
		return width * height * 3
	default:
		return width * height
	}
}

// New returns a graphic with every pixel zero.
func New(number uint8, name string, width, height int, scheme sign.ColorScheme) *Graphic {
	return &Graphic{
		Number: number,
		Name:   name,
		Width:  width,
		Height: height,
		Scheme: scheme,
		Bitmap: make([]byte, BitmapSize(width, height, scheme)),
	}
}

// Validate checks the graphic invariants.
func (g *Graphic) Validate() error {
	if g.Number == 0 {
		return errors.New("graphic: number must be between 1 and 255")
	}
	if len(g.Name) > MaxNameLength {
		return fmt.Errorf("graphic: name longer than %d bytes", MaxNameLength)
	}
	if !g.Scheme.Valid() {
		return fmt.Errorf("graphic: invalid color scheme %d", int(g.Scheme))
	}
	if g.Width < 1 || g.Height < 1 || g.Width > MaxSize || g.Height > MaxSize {
		return fmt.Errorf("graphic: invalid size %dx%d", g.Width, g.Height)
	}
	if len(g.Bitmap) != BitmapSize(g.Width, g.Height, g.Scheme) {
		return errBadBitmap
	}
	if g.Transparent != nil {
		if g.Transparent.Scheme != g.Scheme {
			return fmt.Errorf("graphic: transparent color %s does not match %s", g.Transparent, g.Scheme)
		}
		if !inPalette(*g.Transparent) {
			return fmt.Errorf("graphic: transparent color %s out of range", g.Transparent)
		}
	}
	if g.Scheme == sign.ColorClassic {
		for i, v := range g.Bitmap {
			if int(v) >= len(sign.ClassicPalette) {
				return fmt.Errorf("graphic: pixel (%d, %d) has classic color %d out of range", i%g.Width, i/g.Width, v)
			}
		}
	}
	return nil
}

// inPalette reports whether a stored value is valid for its scheme.
func inPalette(c sign.Color) bool {
	switch c.Scheme {
	case sign.Monochrome1Bit:
		return c.Value <= 1
	case sign.ColorClassic:
		return int(c.Value) < len(sign.ClassicPalette)
	}
	return true
}

// Compatible reports whether the graphic can be shown on a sign using the
// given scheme. Monochrome graphics work on any sign, classic graphics on
// classic and 24-bit signs, 24-bit graphics only on 24-bit signs.
func (g *Graphic) Compatible(scheme sign.ColorScheme) bool {
	switch g.Scheme {
	case sign.Monochrome1Bit, sign.Monochrome8Bit:
		return true
	case sign.ColorClassic:
		return scheme == sign.ColorClassic || scheme == sign.Color24Bit
	case sign.Color24Bit:
		return scheme == sign.Color24Bit
	}
	return false
}

// Bounds returns the rectangle covered by the graphic when placed at (x, y).
func (g *Graphic) Bounds(x, y int) image.Rectangle {
	return image.Rect(x, y, x+g.Width, y+g.Height)
}

// At returns the stored color of pixel (x, y).
func (g *Graphic) At(x, y int) sign.Color {
	switch g.Scheme {
	case sign.Monochrome1Bit:
		i := y*g.Width + x
		return sign.Mono1(g.Bitmap[i>>3]&(0x80>>uint(i&7)) != 0)
	case sign.Color24Bit:
		i := (y*g.Width + x) * 3
		return sign.RGB(g.Bitmap[i+0], g.Bitmap[i+1], g.Bitmap[i+2])
	default:
		return sign.Color{Scheme: g.Scheme, Value: g.Bitmap[y*g.Width+x]}
	}
}

// Set stores color c at pixel (x, y).
func (g *Graphic) Set(x, y int, c sign.Color) error {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return sign.AtPixel(x, y, sign.ErrPixelOutOfBounds)
	}
	c, err := c.In(g.Scheme)
	if err != nil {
		return err
	}
	switch g.Scheme {
	case sign.Monochrome1Bit:
		i := y*g.Width + x
		if c.Value != 0 {
			g.Bitmap[i>>3] |= 0x80 >> uint(i&7)
		} else {
			g.Bitmap[i>>3] &^= 0x80 >> uint(i&7)
		}
	case sign.Color24Bit:
		i := (y*g.Width + x) * 3
		g.Bitmap[i+0], g.Bitmap[i+1], g.Bitmap[i+2] = c.R, c.G, c.B
	default:
		g.Bitmap[y*g.Width+x] = c.Value
	}
	return nil
}

// VersionID returns the CRC-16 of the graphic record.
func (g *Graphic) VersionID() uint16 {
	h := crc16.New()
	var tmp [9]byte
	binary.BigEndian.PutUint16(tmp[0:], uint16(g.Height))
	binary.BigEndian.PutUint16(tmp[2:], uint16(g.Width))
	tmp[4] = byte(g.Scheme)
	if t := g.Transparent; t != nil {
		tmp[5] = 1
		tmp[6], tmp[7], tmp[8] = transparentBytes(*t)
	}
	_, _ = h.Write(tmp[:])
	_, _ = h.Write(g.Bitmap)
	return h.Sum16()
}

func transparentBytes(c sign.Color) (byte, byte, byte) {
	if c.Scheme == sign.Color24Bit {
		return c.R, c.G, c.B
	}
	return c.Value, 0, 0
}

func mix(a, b, level uint8) uint8 {
	return uint8((int(a)*(0xff-int(level)) + int(b)*int(level)) / 0xff)
}

// convert maps a stored pixel to a color of the destination scheme. fg and
// bg stand in for the "on" and "off" values of monochrome graphics.
func (g *Graphic) convert(c sign.Color, scheme sign.ColorScheme, fg, bg sign.Color) (sign.Color, error) {
	switch g.Scheme {
	case sign.Monochrome1Bit:
		if c.Value != 0 {
			return fg, nil
		}
		return bg, nil
	case sign.Monochrome8Bit:
		switch scheme {
		case sign.Monochrome8Bit:
			return c, nil
		case sign.Color24Bit:
			return sign.RGB(mix(bg.R, fg.R, c.Value), mix(bg.G, fg.G, c.Value), mix(bg.B, fg.B, c.Value)), nil
		default:
			if c.Value >= 0x80 {
				return fg, nil
			}
			return bg, nil
		}
	}
	return c.In(scheme)
}

// Blit draws the graphic with its top-left corner at (x, y). Pixels equal to
// the transparent color leave the destination untouched; a nil transparent
// falls back to the graphic's own transparent color. fg and bg are the
// current foreground and background and color monochrome graphics.
func (g *Graphic) Blit(dst *raster.Raster, x, y int, fg, bg sign.Color, transparent *sign.Color) error {
	if !g.Compatible(dst.Scheme) {
		return sign.Errorf(sign.ErrUnsupportedTagValue, "graphic %d is %s, sign is %s", g.Number, g.Scheme, dst.Scheme)
	}
	if !g.Bounds(x, y).In(dst.Bounds()) {
		return sign.AtPixel(x, y, sign.Errorf(sign.ErrGraphicTooBig, "graphic %d is %dx%d", g.Number, g.Width, g.Height))
	}
	if transparent == nil {
		transparent = g.Transparent
	}
	fg, err := fg.In(dst.Scheme)
	if err != nil {
		return err
	}
	bg, err = bg.In(dst.Scheme)
	if err != nil {
		return err
	}

	for gy := 0; gy < g.Height; gy++ {
		for gx := 0; gx < g.Width; gx++ {
			c := g.At(gx, gy)
			if transparent != nil && c == *transparent {
				continue
			}
			c, err := g.convert(c, dst.Scheme, fg, bg)
			if err != nil {
				return err
			}
			if err := dst.Set(x+gx, y+gy, c); err != nil {
				return err
			}
		}
	}
	return nil
}
