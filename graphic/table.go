package graphic

import (
	"errors"
	"fmt"

	"github.com/bodgit/dms/sign"
)

var (
	// ErrTableFull is returned when loading more graphics than the table
	// capacity.
	ErrTableFull = errors.New("graphic: table full")
	// ErrDuplicate is returned when loading a graphic number already present.
	ErrDuplicate = errors.New("graphic: duplicate graphic number")
)

// Table holds the graphics of a sign indexed by graphic number.
type Table struct {
	graphics [MaxGraphics + 1]*Graphic
	capacity int
	n        int
}

// NewTable returns an empty table that accepts up to capacity graphics.
func NewTable(capacity int) *Table {
	if capacity > MaxGraphics {
		capacity = MaxGraphics
	}
	return &Table{capacity: capacity}
}

// Load adds a graphic to the table.
func (t *Table) Load(g *Graphic) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if t.graphics[g.Number] != nil {
		return fmt.Errorf("%w %d", ErrDuplicate, g.Number)
	}
	if t.n >= t.capacity {
		return fmt.Errorf("%w: capacity %d", ErrTableFull, t.capacity)
	}
	t.graphics[g.Number] = g
	t.n++
	return nil
}

// Lookup returns the graphic with the given number.
func (t *Table) Lookup(number int) (*Graphic, error) {
	if t != nil && number > 0 && number <= MaxGraphics {
		if g := t.graphics[number]; g != nil {
			return g, nil
		}
	}
	return nil, sign.Errorf(sign.ErrGraphicNotDefined, "graphic %d", number)
}

// Len returns the number of loaded graphics.
func (t *Table) Len() int {
	return t.n
}

// Capacity returns the maximum number of graphics.
func (t *Table) Capacity() int {
	return t.capacity
}

// Graphics returns the loaded graphics in ascending number order.
func (t *Table) Graphics() []*Graphic {
	graphics := make([]*Graphic, 0, t.n)
	for _, g := range t.graphics {
		if g != nil {
			graphics = append(graphics, g)
		}
	}
	return graphics
}
