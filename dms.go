/*
Package dms renders MULTI messages for dynamic message signs.

A message is parsed and validated against a sign configuration and the
sign's font and graphic tables, laid out page by page and rasterised into
one frame per page, two for pages with flashing regions. Rendering is a
pure function of its inputs; a Renderer adds a table handle that can be
swapped while renders are in flight, and helpers to render many messages
concurrently or wrap frames into GIF, PNG or BMP images.
*/
package dms

import (
	"io"
	"iter"
	"log"
	"sync/atomic"

	"github.com/bodgit/dms/font"
	"github.com/bodgit/dms/graphic"
	"github.com/bodgit/dms/multi"
	"github.com/bodgit/dms/sign"
)

type tables struct {
	fonts    *font.Table
	graphics *graphic.Table
}

// Renderer renders messages for one sign.
type Renderer struct {
	config *sign.Config
	tables atomic.Pointer[tables]
	logger *log.Logger
}

// checkTables verifies the parts of the configuration that depend on the
// font table.
func checkTables(c *sign.Config, fonts *font.Table) error {
	if !c.CharacterMatrix() && !c.LineMatrix() {
		return nil
	}
	f, err := fonts.Lookup(c.DefaultFont)
	if err != nil {
		// Messages that only use other fonts can still render
		return nil
	}
	return font.CheckCellSize(f, c.CharWidth, c.CharHeight)
}

// New returns a Renderer for the sign described by config. A nil logger
// discards any output.
func New(config *sign.Config, fonts *font.Table, graphics *graphic.Table, logger *log.Logger) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := checkTables(config, fonts); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	r := &Renderer{
		config: config,
		logger: logger,
	}
	r.tables.Store(&tables{fonts: fonts, graphics: graphics})

	return r, nil
}

// Config returns the sign configuration.
func (r *Renderer) Config() *sign.Config {
	return r.config
}

// SetTables replaces the font and graphic tables used by subsequent
// renders. Renders already in progress keep the tables they started with.
func (r *Renderer) SetTables(fonts *font.Table, graphics *graphic.Table) error {
	if err := checkTables(r.config, fonts); err != nil {
		return err
	}
	r.tables.Store(&tables{fonts: fonts, graphics: graphics})
	r.logger.Printf("%s: loaded %d fonts and %d graphics\n", r.config.Name, fonts.Len(), graphics.Len())
	return nil
}

// Tables returns the current font and graphic tables.
func (r *Renderer) Tables() (*font.Table, *graphic.Table) {
	t := r.tables.Load()
	return t.fonts, t.graphics
}

func (r *Renderer) context() multi.Context {
	t := r.tables.Load()
	return multi.Context{
		Config:   r.config,
		Fonts:    t.fonts,
		Graphics: t.graphics,
	}
}

// Render renders every page of a message. No frames are returned if any
// part of the message fails.
func (r *Renderer) Render(ms string) ([]Frame, error) {
	frames, err := Render(ms, r.context())
	if err != nil {
		r.logger.Printf("%s: %q: %v\n", r.config.Name, ms, err)
		return nil, err
	}
	return frames, nil
}

// Frames renders a message and yields its frames one at a time. Nothing
// is yielded until the whole message has rendered; a failure is yielded
// once as the only element.
func (r *Renderer) Frames(ms string) iter.Seq2[Frame, error] {
	frames, err := r.Render(ms)
	return func(yield func(Frame, error) bool) {
		if err != nil {
			yield(Frame{}, err)
			return
		}
		for _, f := range frames {
			if !yield(f, nil) {
				return
			}
		}
	}
}
