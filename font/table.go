package font

import (
	"errors"
	"fmt"

	"github.com/bodgit/dms/sign"
)

var (
	// ErrTableFull is returned when loading more fonts than the table
	// capacity.
	ErrTableFull = errors.New("font: table full")
	// ErrDuplicate is returned when loading a font number already present.
	ErrDuplicate = errors.New("font: duplicate font number")
)

// Table holds the fonts of a sign indexed by font number. A table is
// populated once and then shared read-only by any number of renders.
type Table struct {
	fonts    [MaxFonts + 1]*Font
	capacity int
	n        int
}

// NewTable returns an empty table that accepts up to capacity fonts.
func NewTable(capacity int) *Table {
	if capacity > MaxFonts {
		capacity = MaxFonts
	}
	return &Table{capacity: capacity}
}

// Load adds a font to the table.
func (t *Table) Load(f *Font) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if t.fonts[f.Number] != nil {
		return fmt.Errorf("%w %d", ErrDuplicate, f.Number)
	}
	if t.n >= t.capacity {
		return fmt.Errorf("%w: capacity %d", ErrTableFull, t.capacity)
	}
	t.fonts[f.Number] = f
	t.n++
	return nil
}

// Lookup returns the font with the given number.
func (t *Table) Lookup(number int) (*Font, error) {
	if t != nil && number > 0 && number <= MaxFonts {
		if f := t.fonts[number]; f != nil {
			return f, nil
		}
	}
	return nil, sign.Errorf(sign.ErrFontNotDefined, "font %d", number)
}

// Len returns the number of loaded fonts.
func (t *Table) Len() int {
	return t.n
}

// Capacity returns the maximum number of fonts.
func (t *Table) Capacity() int {
	return t.capacity
}

// Fonts returns the loaded fonts in ascending number order.
func (t *Table) Fonts() []*Font {
	fonts := make([]*Font, 0, t.n)
	for _, f := range t.fonts {
		if f != nil {
			fonts = append(fonts, f)
		}
	}
	return fonts
}

// CheckCellSize verifies that every glyph of a font fits the fixed character
// cell of a character or line matrix sign.
func CheckCellSize(f *Font, width, height int) error {
	if height > 0 && int(f.Height) > height {
		return sign.Errorf(sign.ErrInvalidConfiguration, "font %d is %d pixels high, character cell is %d", f.Number, f.Height, height)
	}
	if width == 0 {
		return nil
	}
	for _, g := range f.Glyphs() {
		if int(g.Width) != width {
			return sign.Errorf(sign.ErrInvalidConfiguration, "font %d glyph %d is %d pixels wide, character cell is %d", f.Number, g.CodePoint, g.Width, width)
		}
	}
	return nil
}
