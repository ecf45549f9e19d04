package sign

// LineJustification is the horizontal placement of text within a line, as
// numbered by the MULTI [jl] tag.
type LineJustification int

const (
	LineOther LineJustification = iota + 1
	LineLeft
	LineCenter
	LineRight
	LineFull
)

// Valid reports whether j is one of the defined values.
func (j LineJustification) Valid() bool {
	return j >= LineOther && j <= LineFull
}

// PageJustification is the vertical placement of lines within a text
// rectangle, as numbered by the MULTI [jp] tag.
type PageJustification int

const (
	PageOther PageJustification = iota + 1
	PageTop
	PageMiddle
	PageBottom
)

// Valid reports whether j is one of the defined values.
func (j PageJustification) Valid() bool {
	return j >= PageOther && j <= PageBottom
}
