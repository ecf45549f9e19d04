package font

import (
	"fmt"
	"image"

	"github.com/zachomedia/go-bdf"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FromFace rasterizes the given runes of a bitmap font.Face into a sign
// font. Runes the face does not have, or that are outside the 16-bit code
// point range, are skipped.
func FromFace(face xfont.Face, number uint8, name string, runes []rune) (*Font, error) {
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	height := (m.Ascent + m.Descent).Ceil()
	if height < 1 || height > 0xff {
		return nil, fmt.Errorf("font: face height %d out of range", height)
	}
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}

	f := New(number, name, uint8(height), 0, 0)

	for _, r := range runes {
		if r < 0 || r > 0xffff {
			continue
		}
		dr, mask, maskp, advance, ok := face.Glyph(fixed.P(0, ascent), r)
		if !ok {
			continue
		}
		width := advance.Ceil()
		if width < 1 || width > 0xff {
			continue
		}

		g := Glyph{
			CodePoint: uint16(r),
			Width:     uint8(width),
			Bitmap:    make([]byte, bitmapSize(width, height)),
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				p := image.Pt(x, y)
				if !p.In(dr) {
					continue
				}
				_, _, _, a := mask.At(maskp.X+x-dr.Min.X, maskp.Y+y-dr.Min.Y).RGBA()
				if a >= 0x8000 {
					i := y*width + x
					g.Bitmap[i>>3] |= 0x80 >> uint(i&7)
				}
			}
		}
		if err := f.Add(g); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// ParseBDF converts a font in Glyph Bitmap Distribution Format.
func ParseBDF(data []byte, number uint8) (*Font, error) {
	b, err := bdf.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("font: %w", err)
	}

	runes := make([]rune, 0, len(b.Characters))
	for _, c := range b.Characters {
		runes = append(runes, c.Encoding)
	}

	return FromFace(b.NewFace(), number, b.Name, runes)
}

// Basic returns a 7 by 13 pixel ASCII font, used when a sign has no fonts
// of its own.
func Basic(number uint8) *Font {
	runes := make([]rune, 0, 0x7f-0x20)
	for r := rune(0x20); r < 0x7f; r++ {
		runes = append(runes, r)
	}
	f, err := FromFace(basicfont.Face7x13, number, "basic7x13", runes)
	if err != nil {
		panic(err)
	}
	f.LineSpacing = 2
	return f
}
