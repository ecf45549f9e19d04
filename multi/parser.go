package multi

import (
	"image"

	"github.com/bodgit/dms/font"
	"github.com/bodgit/dms/graphic"
	"github.com/bodgit/dms/sign"
)

// Context is what a message is validated against.
type Context struct {
	Config   *sign.Config
	Fonts    *font.Table
	Graphics *graphic.Table
}

type state int

const (
	statePageStart state = iota
	stateInRect
	stateLineStart
	stateDone
)

func (s state) String() string {
	switch s {
	case statePageStart:
		return "page start"
	case stateInRect:
		return "in rectangle"
	case stateLineStart:
		return "line start"
	default:
		return "done"
	}
}

// attributes carry over from page to page until changed by a tag.
type attributes struct {
	font       *font.Font
	fontErr    error
	foreground sign.Color
	background sign.Color
	spacing    int
	line       sign.LineJustification
	page       sign.PageJustification
	pageOn     int
	pageOff    int
	flash      *Flash
}

type parser struct {
	ctx   Context
	state state
	attrs attributes

	msg  *Message
	page *Page
	rect *Rect
	line *Line
	span *Span
	seq  int
}

func newParser(ctx Context) *parser {
	c := ctx.Config
	p := &parser{
		ctx: ctx,
		attrs: attributes{
			foreground: c.Foreground(),
			background: c.Background(),
			spacing:    Missing,
			line:       c.LineJustification(),
			page:       c.PageJustification(),
			pageOn:     c.PageOnTime(),
			pageOff:    c.PageOffTime(),
		},
		msg: new(Message),
	}
	p.attrs.font, p.attrs.fontErr = ctx.Fonts.Lookup(c.DefaultFont)
	return p
}

func (p *parser) nextSeq() int {
	p.seq++
	return p.seq
}

func (p *parser) startPage(offset int) {
	p.page = &Page{Offset: offset}
	p.openRect(offset, p.ctx.Config.Bounds())
	p.state = stateInRect
}

func (p *parser) flushPage() {
	p.span = nil
	p.page.Background = p.attrs.background
	p.page.PageOn, p.page.PageOff = p.attrs.pageOn, p.attrs.pageOff
	p.msg.Pages = append(p.msg.Pages, p.page)
	p.page, p.rect, p.line = nil, nil, nil
	p.attrs.flash = nil
	p.state = statePageStart
}

func (p *parser) openRect(offset int, r image.Rectangle) {
	p.span = nil
	p.rect = &Rect{
		Offset:        offset,
		Bounds:        r,
		Justification: p.attrs.page,
	}
	p.page.Rects = append(p.page.Rects, p.rect)
	p.newLine(offset, Missing)
}

func (p *parser) newLine(offset, spacing int) {
	p.span = nil
	p.line = &Line{
		Offset:  offset,
		Spacing: spacing,
		Font:    p.attrs.font,
	}
	p.rect.Lines = append(p.rect.Lines, p.line)
}

func (p *parser) text(offset int, s string) error {
	f := p.attrs.font
	if f == nil {
		return p.attrs.fontErr
	}
	for _, r := range s {
		if _, err := f.Glyph(r); err != nil {
			return err
		}
	}
	p.state = stateInRect

	if p.span != nil {
		p.span.Text += s
		return nil
	}

	j := p.attrs.line
	if n := len(p.line.Spans); n > 0 {
		last := p.line.Spans[n-1].Justification
		if j < last || (j != last && (j == sign.LineFull || last == sign.LineFull)) {
			return badValue("line justification %d after %d", j, last)
		}
	}
	if p.line.Font == nil {
		p.line.Font = f
	}

	p.span = &Span{
		Offset:        offset,
		Seq:           p.nextSeq(),
		Text:          s,
		Font:          f,
		Foreground:    p.attrs.foreground,
		CharSpacing:   p.attrs.spacing,
		Justification: j,
		Flash:         p.attrs.flash,
	}
	p.line.Spans = append(p.line.Spans, p.span)
	return nil
}

func (p *parser) color(args []int, def sign.Color) (sign.Color, error) {
	if len(args) == 0 {
		return def, nil
	}
	return sign.ParseColor(args, p.ctx.Config.ColorScheme)
}

func (p *parser) time(v, def int) (int, error) {
	switch {
	case v == Missing:
		return def, nil
	case v > sign.MaxTime:
		return 0, badValue("time %d out of range", v)
	}
	return v, nil
}

func (p *parser) selectFont(args []int) error {
	c := p.ctx.Config
	number := c.DefaultFont
	if len(args) > 0 {
		number = args[0]
	}
	f, err := p.ctx.Fonts.Lookup(number)
	if err != nil {
		return err
	}
	if len(args) == 2 && int(f.VersionID()) != args[1] {
		return sign.Errorf(sign.ErrFontVersionID, "font %d is %04x, not %04x", f.Number, f.VersionID(), args[1])
	}
	if c.CharacterMatrix() || c.LineMatrix() {
		if err := font.CheckCellSize(f, c.CharWidth, c.CharHeight); err != nil {
			return badValue("font %d does not fit the character cell", f.Number)
		}
	}
	p.attrs.font, p.attrs.fontErr = f, nil
	return nil
}

func (p *parser) flash(args []int) error {
	if p.attrs.flash != nil {
		return badValue("flashing regions cannot nest")
	}
	c := p.ctx.Config
	// Zero times select the default, as for [pt]
	for i := 1; i < 3; i++ {
		if args[i] == 0 {
			args[i] = Missing
		}
	}
	on, err := p.time(args[1], c.FlashOnTime())
	if err != nil {
		return err
	}
	off, err := p.time(args[2], c.FlashOffTime())
	if err != nil {
		return err
	}
	f := &Flash{VisibleFirst: args[0] == 1, On: on, Off: off}
	if pf := p.page.Flash; pf != nil && *pf != *f {
		return badValue("flash timing differs from earlier region on the page")
	}
	if p.page.Flash == nil {
		p.page.Flash = f
	}
	p.attrs.flash = p.page.Flash
	return nil
}

func (p *parser) graphic(offset int, args []int) error {
	g, err := p.ctx.Graphics.Lookup(args[0])
	if err != nil {
		return err
	}
	if !g.Compatible(p.ctx.Config.ColorScheme) {
		return badValue("graphic %d is %s, sign is %s", g.Number, g.Scheme, p.ctx.Config.ColorScheme)
	}

	pos := p.rect.Bounds.Min
	if len(args) >= 3 {
		pos = image.Pt(args[1], args[2])
	}
	var transparent *sign.Color
	if len(args) > 3 {
		t, err := sign.ParseColor(args[3:], g.Scheme)
		if err != nil {
			return err
		}
		transparent = &t
	}
	if !g.Bounds(pos.X, pos.Y).In(p.rect.Bounds) {
		return sign.AtPixel(pos.X, pos.Y, sign.Errorf(sign.ErrGraphicTooBig, "graphic %d is %dx%d", g.Number, g.Width, g.Height))
	}

	p.page.Graphics = append(p.page.Graphics, &Graphic{
		Offset:      offset,
		Seq:         p.nextSeq(),
		Graphic:     g,
		Position:    pos,
		Rect:        p.rect.Bounds,
		Transparent: transparent,
		Foreground:  p.attrs.foreground,
		Background:  p.attrs.background,
		Flash:       p.attrs.flash,
	})
	return nil
}

func (p *parser) fill(offset int, args []int) error {
	r := image.Rect(args[0], args[1], args[0]+args[2], args[1]+args[3])
	if args[2] == 0 || args[3] == 0 || !r.In(p.ctx.Config.Bounds()) {
		return badValue("rectangle %v outside the sign", r)
	}
	c, err := sign.ParseColor(args[4:], p.ctx.Config.ColorScheme)
	if err != nil {
		return err
	}
	p.page.Fills = append(p.page.Fills, &Fill{
		Offset: offset,
		Seq:    p.nextSeq(),
		Bounds: r,
		Color:  c,
		Flash:  p.attrs.flash,
	})
	return nil
}

func (p *parser) textRect(offset int, args []int) error {
	c := p.ctx.Config
	x, y, w, h := args[0], args[1], args[2], args[3]
	if w == 0 {
		w = c.PixelWidth - x
	}
	if h == 0 {
		h = c.PixelHeight - y
	}
	r := image.Rect(x, y, x+w, y+h)
	if w <= 0 || h <= 0 || !r.In(c.Bounds()) {
		return badValue("text rectangle %v outside the sign", r)
	}
	if c.CharacterMatrix() && (x%c.CharWidth != 0 || w%c.CharWidth != 0) {
		return badValue("text rectangle %v not aligned to character cells", r)
	}
	if c.LineMatrix() && (y%c.CharHeight != 0 || h%c.CharHeight != 0) {
		return badValue("text rectangle %v not aligned to lines", r)
	}
	p.openRect(offset, r)
	return nil
}

func (p *parser) tag(t Token) error {
	c := p.ctx.Config
	args := t.Args

	if t.Name != TagHexCharacter {
		p.span = nil
	}

	switch t.Name {
	case TagColorBackground, TagPageBackground:
		col, err := p.color(args, c.Background())
		if err != nil {
			return err
		}
		p.attrs.background = col
	case TagColorForeground:
		col, err := p.color(args, c.Foreground())
		if err != nil {
			return err
		}
		p.attrs.foreground = col
	case TagColorRectangle:
		return p.fill(t.Offset, args)
	case TagFont:
		return p.selectFont(args)
	case TagFlash:
		return p.flash(args)
	case TagFlashEnd, TagFlashEndSlash:
		if p.attrs.flash == nil {
			return badValue("not flashing")
		}
		p.attrs.flash = nil
	case TagGraphic:
		return p.graphic(t.Offset, args)
	case TagHexCharacter:
		r := rune(args[0])
		if r >= 0xd800 && r <= 0xdfff {
			return badValue("character %#x", r)
		}
		return p.text(t.Offset, string(r))
	case TagJustifyLine:
		j := c.LineJustification()
		if len(args) > 0 {
			j = sign.LineJustification(args[0])
		}
		if !j.Valid() {
			return badValue("line justification %d", j)
		}
		if j == sign.LineOther {
			j = c.LineJustification()
		}
		p.attrs.line = j
	case TagJustifyPage:
		j := c.PageJustification()
		if len(args) > 0 {
			j = sign.PageJustification(args[0])
		}
		if !j.Valid() {
			return badValue("page justification %d", j)
		}
		if j == sign.PageOther {
			j = c.PageJustification()
		}
		p.attrs.page = j
		p.rect.Justification = j
	case TagNewLine:
		spacing := Missing
		if len(args) > 0 {
			spacing = args[0]
			if spacing > 0xff || (c.LineMatrix() && spacing != 0) {
				return badValue("line spacing %d", spacing)
			}
		}
		p.newLine(t.Offset, spacing)
		p.state = stateLineStart
	case TagNewPage:
		p.flushPage()
	case TagPageTime:
		on, off := args[0], args[1]
		if on == 0 {
			on = Missing
		}
		var err error
		if p.attrs.pageOn, err = p.time(on, c.PageOnTime()); err != nil {
			return err
		}
		if p.attrs.pageOff, err = p.time(off, c.PageOffTime()); err != nil {
			return err
		}
	case TagSpacing:
		if args[0] > c.CharSpacingLimit() {
			return badValue("character spacing %d above %d", args[0], c.CharSpacingLimit())
		}
		p.attrs.spacing = args[0]
	case TagSpacingEnd:
		p.attrs.spacing = Missing
	case TagTextRectangle:
		return p.textRect(t.Offset, args)
	default:
		return sign.Errorf(sign.ErrUnsupportedTag, "[%s]", t.Name)
	}
	return nil
}

func (p *parser) token(t Token) error {
	if p.state == statePageStart {
		p.startPage(t.Offset)
	}
	if t.Kind == Text {
		return p.text(t.Offset, t.Text)
	}
	return p.tag(t)
}

// Parse validates a MULTI string and structures it into pages. The first
// error aborts parsing; it carries the byte offset of the offending token.
func Parse(ms string, ctx Context) (*Message, error) {
	if ctx.Config == nil {
		return nil, sign.Errorf(sign.ErrInvalidConfiguration, "no sign configuration")
	}
	if ms == "" {
		return nil, sign.AtOffset(0, badValue("empty message"))
	}

	tokens, err := Tokenize(ms)
	if err != nil {
		return nil, err
	}

	p := newParser(ctx)
	for _, t := range tokens {
		if err := p.token(t); err != nil {
			return nil, sign.AtOffset(t.Offset, err)
		}
	}

	// A trailing [np] still starts a page
	if p.state == statePageStart {
		p.startPage(len(ms))
	}
	p.flushPage()
	p.state = stateDone

	p.msg.MULTI = ms
	return p.msg, nil
}
