package dms

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"time"

	"github.com/bodgit/dms/raster"
	"github.com/bodgit/dms/sign"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/bmp"
)

const maxColors = 256

var errNoFrames = errors.New("dms: no frames")

// paletted converts a raster to an image the GIF encoder accepts. 24-bit
// rasters get a median cut palette.
func paletted(r *raster.Raster) *image.Paletted {
	if pm := r.Paletted(); pm != nil {
		return pm
	}
	b := r.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, maxColors), r))
	draw.Draw(pm, b, r, b.Min, draw.Src)
	return pm
}

// blank returns the raster shown while a sign is off between pages.
func blank(c *sign.Config) (*raster.Raster, error) {
	r := raster.NewFromConfig(c)
	if err := r.Clear(c.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

// EncodeGIF writes one pass of the display schedule of frames to w as an
// animated GIF that loops forever.
func EncodeGIF(w io.Writer, frames []Frame, c *sign.Config) error {
	if len(frames) == 0 {
		return errNoFrames
	}

	var (
		anim gif.GIF
		off  *image.Paletted
	)
	for _, step := range Schedule(frames) {
		// GIF delays are in hundredths of a second
		delay := int(step.Duration / (10 * time.Millisecond))
		if delay == 0 {
			continue
		}

		var pm *image.Paletted
		if step.Frame == nil {
			if off == nil {
				r, err := blank(c)
				if err != nil {
					return err
				}
				off = paletted(r)
			}
			pm = off
		} else {
			pm = paletted(step.Frame.Raster)
		}

		anim.Image = append(anim.Image, pm)
		anim.Delay = append(anim.Delay, delay)
	}

	// Every page had a zero page time, show the first frame
	if len(anim.Image) == 0 {
		anim.Image = append(anim.Image, paletted(frames[0].Raster))
		anim.Delay = append(anim.Delay, 0)
	}

	return gif.EncodeAll(w, &anim)
}

// EncodePNG writes a single frame to w as a PNG image.
func EncodePNG(w io.Writer, f Frame) error {
	if pm := f.Raster.Paletted(); pm != nil {
		return png.Encode(w, pm)
	}
	return png.Encode(w, f.Raster)
}

// EncodeBMP writes a single frame to w as a BMP image.
func EncodeBMP(w io.Writer, f Frame) error {
	if pm := f.Raster.Paletted(); pm != nil {
		return bmp.Encode(w, pm)
	}
	return bmp.Encode(w, f.Raster)
}
