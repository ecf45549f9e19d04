/*
Package layout positions the content of a parsed MULTI message.

Each page becomes a Plan: the page background and timing plus an ordered
list of drawing operations. Text is broken into lines per text rectangle,
justified horizontally per line and vertically per rectangle. Operations
keep the order their tags appeared in so that later drawing wins where
elements overlap.
*/
package layout

import (
	"image"
	"sort"

	"github.com/bodgit/dms/font"
	"github.com/bodgit/dms/graphic"
	"github.com/bodgit/dms/multi"
	"github.com/bodgit/dms/sign"
)

// Kind is the type of a drawing operation.
type Kind int

// Operation kinds.
const (
	Fill Kind = iota
	Glyph
	Graphic
)

// Op is a single positioned drawing operation.
type Op struct {
	Kind   Kind
	Seq    int
	Offset int
	// Flashing operations are hidden during the off phase of a flash.
	Flashing bool

	// At is the top-left corner of a glyph or graphic.
	At image.Point
	// Bounds is the filled area of a Fill.
	Bounds image.Rectangle
	// Color is the fill color or glyph foreground.
	Color sign.Color

	Glyph  *font.Glyph
	Height int

	Graphic     *graphic.Graphic
	Transparent *sign.Color
	Background  sign.Color
}

// Plan is a laid out page.
type Plan struct {
	Page       int
	Bounds     image.Rectangle
	Background sign.Color
	// PageOn and PageOff are in tenths of a second.
	PageOn  int
	PageOff int
	Flash   *multi.Flash
	Ops     []Op
}

// Flashing reports whether any operation of the plan flashes.
func (p *Plan) Flashing() bool {
	for _, op := range p.Ops {
		if op.Flashing {
			return true
		}
	}
	return false
}

type layout struct {
	cfg *sign.Config
	ops []Op
}

func tooBig(offset int, format string, a ...interface{}) error {
	return sign.AtOffset(offset, sign.Errorf(sign.ErrTextTooBig, format, a...))
}

// charSpacing returns the spacing between glyphs of a span.
func (l *layout) charSpacing(s *multi.Span) int {
	switch {
	case l.cfg.CharacterMatrix():
		return 0
	case s.CharSpacing != multi.Missing:
		return s.CharSpacing
	case l.cfg.DefaultCharSpacing > 0:
		return l.cfg.DefaultCharSpacing
	}
	return int(s.Font.CharSpacing)
}

// gap returns the spacing between the last glyph of a and the first glyph
// of b. Fonts that differ use the larger of their spacings.
func (l *layout) gap(a, b *multi.Span) int {
	switch {
	case l.cfg.CharacterMatrix():
		return 0
	case b.CharSpacing != multi.Missing:
		return b.CharSpacing
	}
	return max(l.charSpacing(a), l.charSpacing(b))
}

func (l *layout) fontLineSpacing(f *font.Font) int {
	if l.cfg.DefaultLineSpacing > 0 {
		return l.cfg.DefaultLineSpacing
	}
	if f == nil {
		return 0
	}
	return int(f.LineSpacing)
}

type span struct {
	*multi.Span
	width int
	// pad is the extra width given to each space of a fully justified
	// span, remainder pixels go to the leftmost spaces.
	pad, extra int
}

type line struct {
	*multi.Line
	spans   []*span
	height  int
	spacing int
	top     int
}

func (l *layout) measure(ln *multi.Line, width int) (*line, error) {
	li := &line{Line: ln}

	// Empty lines take their size from the font in effect
	if ln.Empty() {
		if ln.Font != nil {
			li.height = int(ln.Font.Height)
		}
		li.spacing = l.fontLineSpacing(ln.Font)
	}

	total := 0
	for i, s := range ln.Spans {
		w, err := s.Font.WidthSpacing(s.Text, l.charSpacing(s))
		if err != nil {
			return nil, sign.AtOffset(s.Offset, err)
		}
		if i > 0 {
			total += l.gap(ln.Spans[i-1], s)
		}
		total += w
		if total > width {
			return nil, tooBig(s.Offset, "line is wider than %d pixels", width)
		}
		li.spans = append(li.spans, &span{Span: s, width: w})
		li.height = max(li.height, int(s.Font.Height))
		li.spacing = max(li.spacing, l.fontLineSpacing(s.Font))
	}

	if l.cfg.LineMatrix() {
		li.height, li.spacing = l.cfg.CharHeight, 0
	}

	return li, nil
}

func (li *line) offset() int {
	if len(li.spans) > 0 {
		return li.spans[0].Offset
	}
	return li.Offset
}

// groupWidth returns the width of consecutive spans including the gaps
// between them.
func (l *layout) groupWidth(spans []*span) int {
	w := 0
	for i, s := range spans {
		if i > 0 {
			w += l.gap(spans[i-1].Span, s.Span)
		}
		w += s.width
	}
	return w
}

func (l *layout) snap(v, cell int) int {
	if cell > 0 {
		return v - v%cell
	}
	return v
}

// justifyFull spreads the free pixels of a line over its spaces.
func justifyFull(spans []*span, free int) {
	spaces := 0
	for _, s := range spans {
		for _, r := range s.Text {
			if r == ' ' {
				spaces++
			}
		}
	}
	if spaces == 0 || free <= 0 {
		return
	}
	pad, extra := free/spaces, free%spaces
	for _, s := range spans {
		n := 0
		for _, r := range s.Text {
			if r == ' ' {
				n++
			}
		}
		s.pad = pad
		s.extra = min(extra, n)
		extra -= s.extra
	}
}

func (l *layout) placeSpans(spans []*span, x, top, height int) error {
	for i, s := range spans {
		if i > 0 {
			x += l.gap(spans[i-1].Span, s.Span)
		}
		cs, extra := l.charSpacing(s.Span), s.extra
		flashing := s.Flash != nil
		y := top + height - int(s.Font.Height)
		for j, r := range s.Text {
			g, err := s.Font.Glyph(r)
			if err != nil {
				return sign.AtOffset(s.Offset, err)
			}
			if j > 0 {
				x += cs
			}
			l.ops = append(l.ops, Op{
				Kind:     Glyph,
				Seq:      s.Seq,
				Offset:   s.Offset,
				Flashing: flashing,
				At:       image.Pt(x, y),
				Color:    s.Foreground,
				Glyph:    g,
				Height:   int(s.Font.Height),
			})
			x += int(g.Width)
			if r == ' ' {
				x += s.pad
				if extra > 0 {
					x++
					extra--
				}
			}
		}
	}
	return nil
}

func (l *layout) placeLine(li *line, r image.Rectangle) error {
	var groups [sign.LineFull + 1][]*span
	for _, s := range li.spans {
		groups[s.Justification] = append(groups[s.Justification], s)
	}

	width, cell := r.Dx(), l.cfg.CharWidth

	if full := groups[sign.LineFull]; len(full) > 0 {
		justifyFull(full, width-l.groupWidth(full))
		return l.placeSpans(full, r.Min.X, li.top, li.height)
	}

	left := l.groupWidth(groups[sign.LineLeft])
	center := l.groupWidth(groups[sign.LineCenter])
	right := l.groupWidth(groups[sign.LineRight])
	if left+center+right > width {
		return tooBig(li.offset(), "line is wider than %d pixels", width)
	}

	if err := l.placeSpans(groups[sign.LineLeft], r.Min.X, li.top, li.height); err != nil {
		return err
	}

	x := l.snap((width-center)/2, cell)
	x = min(max(x, left), width-right-center)
	if err := l.placeSpans(groups[sign.LineCenter], r.Min.X+x, li.top, li.height); err != nil {
		return err
	}

	x = l.snap(width-right, cell)
	return l.placeSpans(groups[sign.LineRight], r.Min.X+x, li.top, li.height)
}

func (l *layout) rect(rect *multi.Rect) error {
	r := rect.Bounds

	lines := rect.Lines
	for len(lines) > 0 && lines[len(lines)-1].Empty() {
		lines = lines[:len(lines)-1]
	}

	var (
		measured []*line
		total    int
	)
	for i, ln := range lines {
		li, err := l.measure(ln, r.Dx())
		if err != nil {
			return err
		}
		if i > 0 {
			spacing := li.spacing
			switch {
			case l.cfg.LineMatrix():
				spacing = 0
			case ln.Spacing != multi.Missing:
				spacing = ln.Spacing
			default:
				spacing = max(spacing, measured[i-1].spacing)
			}
			total += spacing
		}
		li.top = total
		total += li.height
		if total > r.Dy() {
			return tooBig(li.offset(), "text is taller than %d pixels", r.Dy())
		}
		measured = append(measured, li)
	}

	var y int
	switch rect.Justification {
	case sign.PageMiddle:
		y = (r.Dy() - total) / 2
	case sign.PageBottom:
		y = r.Dy() - total
	}
	y = r.Min.Y + l.snap(y, l.cfg.CharHeight)

	for _, li := range measured {
		li.top += y
		if err := l.placeLine(li, r); err != nil {
			return err
		}
	}
	return nil
}

func (l *layout) page(n int, page *multi.Page) (Plan, error) {
	l.ops = nil

	for _, f := range page.Fills {
		l.ops = append(l.ops, Op{
			Kind:     Fill,
			Seq:      f.Seq,
			Offset:   f.Offset,
			Flashing: f.Flash != nil,
			Bounds:   f.Bounds,
			Color:    f.Color,
		})
	}
	for _, g := range page.Graphics {
		l.ops = append(l.ops, Op{
			Kind:        Graphic,
			Seq:         g.Seq,
			Offset:      g.Offset,
			Flashing:    g.Flash != nil,
			At:          g.Position,
			Color:       g.Foreground,
			Graphic:     g.Graphic,
			Transparent: g.Transparent,
			Background:  g.Background,
		})
	}
	for _, rect := range page.Rects {
		if err := l.rect(rect); err != nil {
			return Plan{}, err
		}
	}

	sort.SliceStable(l.ops, func(i, j int) bool { return l.ops[i].Seq < l.ops[j].Seq })

	return Plan{
		Page:       n,
		Bounds:     l.cfg.Bounds(),
		Background: page.Background,
		PageOn:     page.PageOn,
		PageOff:    page.PageOff,
		Flash:      page.Flash,
		Ops:        l.ops,
	}, nil
}

// Layout returns one plan per page of the message.
func Layout(m *multi.Message, c *sign.Config) ([]Plan, error) {
	l := layout{cfg: c}
	plans := make([]Plan, 0, len(m.Pages))
	for i, page := range m.Pages {
		plan, err := l.page(i, page)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
