package graphic

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/dms/sign"
)

var monoPalette = color.Palette{color.Black, color.White}

// FromImage converts m to a graphic of the given scheme. Each pixel maps to
// the nearest color the scheme can express. Pixels that are less than half
// opaque become the zero color of the scheme, which is then marked as the
// graphic's transparent color.
func FromImage(m image.Image, number uint8, name string, scheme sign.ColorScheme) (*Graphic, error) {
	b := m.Bounds()
	g := New(number, name, b.Dx(), b.Dy(), scheme)
	if err := g.Validate(); err != nil {
		return nil, err
	}

	var pm *image.Paletted
	switch scheme {
	case sign.Monochrome1Bit:
		pm = image.NewPaletted(b, monoPalette)
	case sign.ColorClassic:
		pm = image.NewPaletted(b, sign.ClassicPalette)
	}
	if pm != nil {
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	transparent := false
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var c sign.Color
			r, gr, bl, a := m.At(x, y).RGBA()
			switch {
			case a < 0x8000:
				transparent = true
				c = sign.Color{Scheme: scheme}
			case scheme == sign.Monochrome1Bit:
				c = sign.Mono1(pm.ColorIndexAt(x, y) == 1)
			case scheme == sign.Monochrome8Bit:
				c = sign.Mono8(color.GrayModel.Convert(m.At(x, y)).(color.Gray).Y)
			case scheme == sign.ColorClassic:
				c = sign.Classic(pm.ColorIndexAt(x, y))
			default:
				c = sign.RGB(uint8(r>>8), uint8(gr>>8), uint8(bl>>8))
			}
			if err := g.Set(x-b.Min.X, y-b.Min.Y, c); err != nil {
				return nil, err
			}
		}
	}

	if transparent {
		g.Transparent = &sign.Color{Scheme: scheme}
	}

	return g, nil
}

// Image returns the graphic as an image using the sign's device colors for
// monochrome levels. Transparent pixels are fully transparent.
func (g *Graphic) Image(off, on color.Color) image.Image {
	m := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	or, og, ob, _ := off.RGBA()
	nr, ng, nb, _ := on.RGBA()
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := g.At(x, y)
			if g.Transparent != nil && c == *g.Transparent {
				continue
			}
			var level uint8
			switch g.Scheme {
			case sign.Monochrome1Bit:
				level = c.Value * 0xff
			case sign.Monochrome8Bit:
				level = c.Value
			case sign.ColorClassic:
				if int(c.Value) < len(sign.ClassicPalette) {
					m.Set(x, y, sign.ClassicPalette[c.Value])
				}
				continue
			default:
				m.Set(x, y, color.NRGBA{c.R, c.G, c.B, 0xff})
				continue
			}
			m.Set(x, y, color.NRGBA{
				mix(uint8(or>>8), uint8(nr>>8), level),
				mix(uint8(og>>8), uint8(ng>>8), level),
				mix(uint8(ob>>8), uint8(nb>>8), level),
				0xff,
			})
		}
	}
	return m
}
