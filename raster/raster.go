/*
Package raster implements the indexed pixel buffer a sign page is rendered
into.

Pixels are stored row-major. Monochrome 1-bit rasters pack eight pixels per
byte, most significant bit first, with each row padded to a whole byte.
Monochrome 8-bit and classic rasters use one byte per pixel holding the
level or palette index. 24-bit rasters use three bytes per pixel in R, G, B
order.
*/
package raster

import (
	"bytes"
	"image"
	"image/color"

	"github.com/bodgit/dms/sign"
)

// Raster is a page sized pixel buffer for one color scheme.
type Raster struct {
	Width  int
	Height int
	Scheme sign.ColorScheme
	Stride int
	Pix    []byte

	// Palette maps stored values to device colors, it is nil for 24-bit
	// rasters.
	Palette color.Palette
}

func bytesPerRow(width int, scheme sign.ColorScheme) int {
	switch scheme {
	case sign.Monochrome1Bit:
		return (width + 7) >> 3
	case sign.Color24Bit:
		return width * 3
	default:
		return width
	}
}

// MonochromePalette returns the device palette of a monochrome scheme,
// ramping from off to on.
func MonochromePalette(scheme sign.ColorScheme, off, on color.RGBA) color.Palette {
	levels := 2
	if scheme == sign.Monochrome8Bit {
		levels = 256
	}
	p := make(color.Palette, levels)
	for i := range p {
		mix := func(a, b uint8) uint8 {
			return uint8((int(a)*(levels-1-i) + int(b)*i) / (levels - 1))
		}
		p[i] = color.RGBA{mix(off.R, on.R), mix(off.G, on.G), mix(off.B, on.B), 0xff}
	}
	return p
}

// New returns a raster of the given size with every stored value zero.
func New(width, height int, scheme sign.ColorScheme) *Raster {
	stride := bytesPerRow(width, scheme)
	r := &Raster{
		Width:  width,
		Height: height,
		Scheme: scheme,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}
	switch scheme {
	case sign.Monochrome1Bit, sign.Monochrome8Bit:
		r.Palette = MonochromePalette(scheme, color.RGBA{0, 0, 0, 0xff}, color.RGBA{0xff, 0xb4, 0x00, 0xff})
	case sign.ColorClassic:
		r.Palette = sign.ClassicPalette
	}
	return r
}

// NewFromConfig returns a raster covering the pixel matrix of a sign.
func NewFromConfig(c *sign.Config) *Raster {
	r := New(c.PixelWidth, c.PixelHeight, c.ColorScheme)
	if c.ColorScheme.Monochrome() {
		off, on := c.MonochromeColors()
		r.Palette = MonochromePalette(c.ColorScheme, off, on)
	}
	return r
}

func (r *Raster) inBounds(x, y int) bool {
	return x >= 0 && x < r.Width && y >= 0 && y < r.Height
}

// Set stores color c at (x, y). The color must be expressible in the
// raster's scheme.
func (r *Raster) Set(x, y int, c sign.Color) error {
	if !r.inBounds(x, y) {
		return sign.AtPixel(x, y, sign.ErrPixelOutOfBounds)
	}
	c, err := r.resolve(c)
	if err != nil {
		return err
	}
	r.set(x, y, c)
	return nil
}

func (r *Raster) resolve(c sign.Color) (sign.Color, error) {
	c, err := c.In(r.Scheme)
	if err != nil {
		return c, err
	}
	if r.Scheme == sign.ColorClassic && int(c.Value) >= len(sign.ClassicPalette) {
		return c, sign.Errorf(sign.ErrUnsupportedTagValue, "classic color %d out of range", c.Value)
	}
	return c, nil
}

func (r *Raster) set(x, y int, c sign.Color) {
	switch r.Scheme {
	case sign.Monochrome1Bit:
		i, bit := y*r.Stride+x>>3, byte(0x80>>uint(x&7))
		if c.Value != 0 {
			r.Pix[i] |= bit
		} else {
			r.Pix[i] &^= bit
		}
	case sign.Color24Bit:
		i := y*r.Stride + x*3
		r.Pix[i+0], r.Pix[i+1], r.Pix[i+2] = c.R, c.G, c.B
	default:
		r.Pix[y*r.Stride+x] = c.Value
	}
}

// Get returns the color stored at (x, y).
func (r *Raster) Get(x, y int) (sign.Color, error) {
	if !r.inBounds(x, y) {
		return sign.Color{}, sign.AtPixel(x, y, sign.ErrPixelOutOfBounds)
	}
	switch r.Scheme {
	case sign.Monochrome1Bit:
		return sign.Mono1(r.Pix[y*r.Stride+x>>3]&(0x80>>uint(x&7)) != 0), nil
	case sign.Color24Bit:
		i := y*r.Stride + x*3
		return sign.RGB(r.Pix[i+0], r.Pix[i+1], r.Pix[i+2]), nil
	default:
		return sign.Color{Scheme: r.Scheme, Value: r.Pix[y*r.Stride+x]}, nil
	}
}

// Fill sets every pixel of rect to c. The rectangle must lie within the
// raster.
func (r *Raster) Fill(rect image.Rectangle, c sign.Color) error {
	if !rect.In(r.Bounds()) {
		return sign.AtPixel(rect.Min.X, rect.Min.Y, sign.ErrPixelOutOfBounds)
	}
	c, err := r.resolve(c)
	if err != nil {
		return err
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r.set(x, y, c)
		}
	}
	return nil
}

// Clear sets every pixel to c.
func (r *Raster) Clear(c sign.Color) error {
	return r.Fill(r.Bounds(), c)
}

// Clone returns a deep copy of r.
func (r *Raster) Clone() *Raster {
	dup := *r
	dup.Pix = append([]byte(nil), r.Pix...)
	return &dup
}

// Equal reports whether two rasters hold the same pixels.
func (r *Raster) Equal(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height && r.Scheme == o.Scheme && bytes.Equal(r.Pix, o.Pix)
}

// Bounds implements image.Image.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// ColorModel implements image.Image.
func (r *Raster) ColorModel() color.Model {
	if r.Palette != nil {
		return r.Palette
	}
	return color.RGBAModel
}

// At implements image.Image, returning device colors.
func (r *Raster) At(x, y int) color.Color {
	c, err := r.Get(x, y)
	if err != nil {
		return color.RGBA{}
	}
	if r.Scheme == sign.Color24Bit {
		return color.RGBA{c.R, c.G, c.B, 0xff}
	}
	return r.Palette[c.Value]
}

// ColorIndexAt returns the stored level or palette index at (x, y). It is
// meaningless for 24-bit rasters.
func (r *Raster) ColorIndexAt(x, y int) uint8 {
	c, err := r.Get(x, y)
	if err != nil {
		return 0
	}
	return c.Value
}

// Paletted converts r to an *image.Paletted, it returns nil for 24-bit
// rasters.
func (r *Raster) Paletted() *image.Paletted {
	if r.Palette == nil {
		return nil
	}
	m := image.NewPaletted(r.Bounds(), r.Palette)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			m.SetColorIndex(x, y, r.ColorIndexAt(x, y))
		}
	}
	return m
}
