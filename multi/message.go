/*
Package multi implements the MULTI markup language used to describe the
content of dynamic message sign pages.

Tokenize splits a MULTI string into text runs and tags. Parse validates the
tokens against a sign configuration and its font and graphic tables and
returns the message structured as pages of text rectangles, each holding
lines of styled text spans. Rectangle fills and graphics are kept per page
in the order they appear so later drawing can win where they overlap.

Coordinates in tags are zero-based pixel positions relative to the top-left
corner of the sign.
*/
package multi

import (
	"image"

	"github.com/bodgit/dms/font"
	"github.com/bodgit/dms/graphic"
	"github.com/bodgit/dms/sign"
)

// Flash is the timing of a flashing region, in tenths of a second.
type Flash struct {
	// VisibleFirst is set when the region starts in its visible phase.
	VisibleFirst bool
	On           int
	Off          int
}

// Span is a run of text sharing the same attributes.
type Span struct {
	Offset int
	Seq    int

	Text       string
	Font       *font.Font
	Foreground sign.Color
	// CharSpacing is the explicit [sc] value, Missing when the font
	// spacing applies.
	CharSpacing   int
	Justification sign.LineJustification
	Flash         *Flash
}

// Line is a line of spans within a text rectangle.
type Line struct {
	Offset int
	// Spacing is the explicit [nl] spacing above the line, Missing when
	// the font line spacing applies.
	Spacing int
	// Font is the font in effect when the line started, it sizes empty
	// lines.
	Font  *font.Font
	Spans []*Span
}

// Empty reports whether the line has no text.
func (l *Line) Empty() bool {
	return len(l.Spans) == 0
}

// Rect is a text rectangle.
type Rect struct {
	Offset        int
	Bounds        image.Rectangle
	Justification sign.PageJustification
	Lines         []*Line
}

// Graphic is a placed graphic.
type Graphic struct {
	Offset  int
	Seq     int
	Graphic *graphic.Graphic
	// Position is the top-left corner of the graphic.
	Position image.Point
	// Rect is the text rectangle the graphic must fit in.
	Rect        image.Rectangle
	Transparent *sign.Color
	Foreground  sign.Color
	Background  sign.Color
	Flash       *Flash
}

// Fill is a colored rectangle.
type Fill struct {
	Offset int
	Seq    int
	Bounds image.Rectangle
	Color  sign.Color
	Flash  *Flash
}

// Page is a single page of a message.
type Page struct {
	Offset     int
	Background sign.Color
	// PageOn and PageOff are in tenths of a second.
	PageOn  int
	PageOff int
	// Flash is the timing shared by every flashing element of the page,
	// nil if nothing flashes.
	Flash *Flash

	Rects    []*Rect
	Graphics []*Graphic
	Fills    []*Fill
}

// Message is a parsed MULTI string, it always has at least one page.
type Message struct {
	MULTI string
	Pages []*Page
}
