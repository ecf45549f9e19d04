/*
Package font implements the bitmap fonts of a dynamic message sign.

Each glyph bitmap is a continuous bit stream of width times height bits,
row-major and most significant bit first, so a glyph occupies
ceil(width*height/8) bytes. A font's version ID is the CRC-16 of its glyph
records in ascending code point order, which is what sign controllers
compare to reject mismatched fonts.
*/
package font

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/bodgit/dms/crc16"
	"github.com/bodgit/dms/raster"
	"github.com/bodgit/dms/sign"
)

const (
	// MaxNameLength is the longest font name, in bytes.
	MaxNameLength = 24
	// MaxFonts is the number of distinct font numbers.
	MaxFonts = 255
)

var errBadBitmap = errors.New("font: bitmap length does not match glyph size")

// Glyph is the bitmap of a single character.
type Glyph struct {
	CodePoint uint16
	Width     uint8
	Bitmap    []byte
}

func bitmapSize(width, height int) int {
	return (width*height + 7) >> 3
}

func (g *Glyph) bit(i int) bool {
	return g.Bitmap[i>>3]&(0x80>>uint(i&7)) != 0
}

// Font is a numbered set of glyphs sharing a height and default spacing.
type Font struct {
	Number      uint8
	Name        string
	Height      uint8
	CharSpacing uint8
	LineSpacing uint8

	glyphs map[uint16]*Glyph
}

// New returns an empty font.
func New(number uint8, name string, height, charSpacing, lineSpacing uint8) *Font {
	return &Font{
		Number:      number,
		Name:        name,
		Height:      height,
		CharSpacing: charSpacing,
		LineSpacing: lineSpacing,
		glyphs:      make(map[uint16]*Glyph),
	}
}

// Validate checks the font invariants.
func (f *Font) Validate() error {
	if f.Number == 0 {
		return errors.New("font: number must be between 1 and 255")
	}
	if f.Height < 1 {
		return errors.New("font: height must be at least 1")
	}
	if len(f.Name) > MaxNameLength {
		return fmt.Errorf("font: name longer than %d bytes", MaxNameLength)
	}
	for _, g := range f.glyphs {
		if len(g.Bitmap) != bitmapSize(int(g.Width), int(f.Height)) {
			return errBadBitmap
		}
	}
	return nil
}

// Add stores a glyph, replacing any existing glyph for the same code point.
func (f *Font) Add(g Glyph) error {
	if len(g.Bitmap) != bitmapSize(int(g.Width), int(f.Height)) {
		return errBadBitmap
	}
	if f.glyphs == nil {
		f.glyphs = make(map[uint16]*Glyph)
	}
	g.Bitmap = append([]byte(nil), g.Bitmap...)
	f.glyphs[g.CodePoint] = &g
	return nil
}

// Len returns the number of glyphs in the font.
func (f *Font) Len() int {
	return len(f.glyphs)
}

// Glyphs returns every glyph in ascending code point order.
func (f *Font) Glyphs() []*Glyph {
	glyphs := make([]*Glyph, 0, len(f.glyphs))
	for _, g := range f.glyphs {
		glyphs = append(glyphs, g)
	}
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i].CodePoint < glyphs[j].CodePoint })
	return glyphs
}

// Glyph returns the glyph for a code point.
func (f *Font) Glyph(r rune) (*Glyph, error) {
	if r >= 0 && r <= 0xffff {
		if g, ok := f.glyphs[uint16(r)]; ok {
			return g, nil
		}
	}
	return nil, sign.Errorf(sign.ErrCharacterNotDefined, "code point %d in font %d", r, f.Number)
}

// VersionID returns the CRC-16 of the glyph records.
func (f *Font) VersionID() uint16 {
	h := crc16.New()
	var tmp [3]byte
	for _, g := range f.Glyphs() {
		binary.BigEndian.PutUint16(tmp[:2], g.CodePoint)
		tmp[2] = g.Width
		_, _ = h.Write(tmp[:])
		_, _ = h.Write(g.Bitmap)
	}
	return h.Sum16()
}

// Width returns the width of text using the font's own character spacing.
func (f *Font) Width(text string) (int, error) {
	return f.WidthSpacing(text, int(f.CharSpacing))
}

// WidthSpacing returns the width of text with cs pixels between
// consecutive glyphs.
func (f *Font) WidthSpacing(text string, cs int) (int, error) {
	width, n := 0, 0
	for _, r := range text {
		g, err := f.Glyph(r)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			width += cs
		}
		width += int(g.Width)
		n++
		if width > 0xffff {
			return 0, sign.Errorf(sign.ErrTextTooBig, "text wider than %d pixels", 0xffff)
		}
	}
	return width, nil
}

// Draw sets the pixels of the glyph with c at (x, y). Unset bits leave the
// destination untouched.
func (g *Glyph) Draw(dst *raster.Raster, x, y, height int, c sign.Color) error {
	w := int(g.Width)
	for i := 0; i < w*height; i++ {
		if !g.bit(i) {
			continue
		}
		if err := dst.Set(x+i%w, y+i/w, c); err != nil {
			return err
		}
	}
	return nil
}

// Render draws text left to right with its top-left corner at (x, y),
// leaving cs pixels between consecutive glyphs.
func (f *Font) Render(dst *raster.Raster, text string, x, y, cs int, c sign.Color) error {
	for i, r := range text {
		g, err := f.Glyph(r)
		if err != nil {
			return err
		}
		if i > 0 {
			x += cs
		}
		if err := g.Draw(dst, x, y, int(f.Height), c); err != nil {
			return err
		}
		x += int(g.Width)
	}
	return nil
}
