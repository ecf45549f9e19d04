package dms

import (
	"time"

	"github.com/bodgit/dms/layout"
	"github.com/bodgit/dms/multi"
	"github.com/bodgit/dms/raster"
	"github.com/bodgit/dms/sign"
)

// Decisecond is the unit of MULTI page and flash times.
const Decisecond = 100 * time.Millisecond

// Phase identifies which part of a page a frame shows.
type Phase int

// Frame phases.
const (
	// Steady is the only frame of a page without flashing.
	Steady Phase = iota
	// Visible shows a flashing page with its flashing regions drawn.
	Visible
	// Hidden shows a flashing page with its flashing regions left out.
	Hidden
)

func (p Phase) String() string {
	switch p {
	case Steady:
		return "steady"
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	}
	return "unknown"
}

// Frame is a rendered page, or one phase of a flashing page.
type Frame struct {
	Page   int
	Phase  Phase
	Raster *raster.Raster
	// PageOn and PageOff are the display and blank times of the page.
	PageOn  time.Duration
	PageOff time.Duration
	// Duration is how long the frame shows within one flash cycle, it
	// equals PageOn for steady frames.
	Duration time.Duration
	// Flash is the timing of the page's flashing regions, nil for steady
	// frames.
	Flash *multi.Flash
}

func plan(ms string, ctx multi.Context) ([]layout.Plan, error) {
	if ctx.Config != nil {
		if err := ctx.Config.Validate(); err != nil {
			return nil, err
		}
	}
	m, err := multi.Parse(ms, ctx)
	if err != nil {
		return nil, err
	}
	return layout.Layout(m, ctx.Config)
}

// rasterize draws a plan. The background goes first, then every operation
// in message order; flashing operations are skipped unless visible.
func rasterize(p layout.Plan, c *sign.Config, visible bool) (*raster.Raster, error) {
	r := raster.NewFromConfig(c)
	if err := r.Clear(p.Background); err != nil {
		return nil, err
	}

	for _, op := range p.Ops {
		if op.Flashing && !visible {
			continue
		}
		var err error
		switch op.Kind {
		case layout.Fill:
			err = r.Fill(op.Bounds, op.Color)
		case layout.Glyph:
			err = op.Glyph.Draw(r, op.At.X, op.At.Y, op.Height, op.Color)
		case layout.Graphic:
			err = op.Graphic.Blit(r, op.At.X, op.At.Y, op.Color, op.Background, op.Transparent)
		}
		if err != nil {
			return nil, sign.AtOffset(op.Offset, err)
		}
	}

	return r, nil
}

func renderPlan(p layout.Plan, c *sign.Config) ([]Frame, error) {
	on, off := time.Duration(p.PageOn)*Decisecond, time.Duration(p.PageOff)*Decisecond

	if p.Flash == nil || !p.Flashing() {
		r, err := rasterize(p, c, true)
		if err != nil {
			return nil, err
		}
		return []Frame{{Page: p.Page, Phase: Steady, Raster: r, PageOn: on, PageOff: off, Duration: on}}, nil
	}

	visible, err := rasterize(p, c, true)
	if err != nil {
		return nil, err
	}
	hidden, err := rasterize(p, c, false)
	if err != nil {
		return nil, err
	}

	frames := []Frame{
		{Page: p.Page, Phase: Visible, Raster: visible, PageOn: on, PageOff: off, Duration: time.Duration(p.Flash.On) * Decisecond, Flash: p.Flash},
		{Page: p.Page, Phase: Hidden, Raster: hidden, PageOn: on, PageOff: off, Duration: time.Duration(p.Flash.Off) * Decisecond, Flash: p.Flash},
	}
	if !p.Flash.VisibleFirst {
		frames[0], frames[1] = frames[1], frames[0]
	}
	return frames, nil
}

// Render parses, validates, lays out and rasterises a MULTI string. It has
// no side effects and returns the same frames for the same inputs. Any
// error aborts the whole message.
func Render(ms string, ctx multi.Context) ([]Frame, error) {
	plans, err := plan(ms, ctx)
	if err != nil {
		return nil, err
	}

	var frames []Frame
	for _, p := range plans {
		f, err := renderPlan(p, ctx.Config)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f...)
	}
	return frames, nil
}

// Step is one entry of a display schedule. A nil Frame is a blank sign
// during a page off time.
type Step struct {
	Frame    *Frame
	Duration time.Duration
}

// Schedule expands frames into the sequence a sign displays for one pass
// through the message. Each page shows for its page on time, cycling
// through its flash phases if it has them, then blanks for its page off
// time.
func Schedule(frames []Frame) []Step {
	var steps []Step
	for i := 0; i < len(frames); {
		j := i + 1
		for j < len(frames) && frames[j].Page == frames[i].Page {
			j++
		}
		page := frames[i:j]

		remaining := page[0].PageOn
		cycle := time.Duration(0)
		for _, f := range page {
			cycle += f.Duration
		}
		if len(page) == 1 || cycle == 0 {
			steps = append(steps, Step{Frame: &page[0], Duration: remaining})
		} else {
			for k := 0; remaining > 0; k = (k + 1) % len(page) {
				d := min(page[k].Duration, remaining)
				if d > 0 {
					steps = append(steps, Step{Frame: &page[k], Duration: d})
				}
				remaining -= d
			}
		}

		if off := page[0].PageOff; off > 0 {
			steps = append(steps, Step{Duration: off})
		}
		i = j
	}
	return steps
}
