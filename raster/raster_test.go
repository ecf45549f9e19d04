package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/dms/sign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonochrome1BitPacking(t *testing.T) {
	r := New(10, 2, sign.Monochrome1Bit)
	assert.Equal(t, 2, r.Stride)
	assert.Len(t, r.Pix, 4)

	require.NoError(t, r.Set(0, 0, sign.Mono1(true)))
	require.NoError(t, r.Set(9, 1, sign.Mono1(true)))
	assert.Equal(t, []byte{0x80, 0x00, 0x00, 0x40}, r.Pix)

	c, err := r.Get(9, 1)
	require.NoError(t, err)
	assert.Equal(t, sign.Mono1(true), c)

	require.NoError(t, r.Set(0, 0, sign.Mono1(false)))
	assert.Equal(t, byte(0), r.Pix[0])
}

func TestSetWrongScheme(t *testing.T) {
	r := New(4, 4, sign.Monochrome8Bit)
	assert.ErrorIs(t, r.Set(0, 0, sign.RGB(1, 2, 3)), sign.ErrUnsupportedTagValue)

	r = New(4, 4, sign.ColorClassic)
	assert.ErrorIs(t, r.Set(0, 0, sign.Classic(12)), sign.ErrUnsupportedTagValue)

	// Classic colors are promoted on 24-bit rasters
	r = New(4, 4, sign.Color24Bit)
	require.NoError(t, r.Set(1, 1, sign.Classic(sign.ClassicRed)))
	c, err := r.Get(1, 1)
	require.NoError(t, err)
	assert.Equal(t, sign.RGB(0xff, 0, 0), c)
}

func TestOutOfBounds(t *testing.T) {
	r := New(4, 4, sign.ColorClassic)
	for _, p := range []image.Point{{-1, 0}, {4, 0}, {0, 4}, {0, -1}} {
		err := r.Set(p.X, p.Y, sign.Classic(1))
		assert.ErrorIs(t, err, sign.ErrPixelOutOfBounds)
		assert.Contains(t, err.Error(), "pixel")
	}
	assert.ErrorIs(t, r.Fill(image.Rect(2, 2, 5, 3), sign.Classic(1)), sign.ErrPixelOutOfBounds)
}

func TestFill(t *testing.T) {
	r := New(6, 4, sign.Color24Bit)
	require.NoError(t, r.Fill(image.Rect(1, 1, 3, 3), sign.RGB(0xff, 0, 0)))

	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			c, err := r.Get(x, y)
			require.NoError(t, err)
			if image.Pt(x, y).In(image.Rect(1, 1, 3, 3)) {
				assert.Equal(t, sign.RGB(0xff, 0, 0), c)
			} else {
				assert.Equal(t, sign.RGB(0, 0, 0), c)
			}
		}
	}
}

func TestCloneEqual(t *testing.T) {
	r := New(8, 8, sign.Monochrome8Bit)
	require.NoError(t, r.Clear(sign.Mono8(7)))
	dup := r.Clone()
	assert.True(t, r.Equal(dup))

	require.NoError(t, dup.Set(0, 0, sign.Mono8(8)))
	assert.False(t, r.Equal(dup))
}

func TestImage(t *testing.T) {
	c := &sign.Config{
		PixelWidth:           3,
		PixelHeight:          1,
		ColorScheme:          sign.Monochrome1Bit,
		MonochromeForeground: []uint8{0xff, 0xff, 0xff},
	}
	r := NewFromConfig(c)
	require.NoError(t, r.Set(1, 0, sign.Mono1(true)))

	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, r.At(0, 0))
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, r.At(1, 0))

	m := r.Paletted()
	require.NotNil(t, m)
	assert.Equal(t, uint8(1), m.ColorIndexAt(1, 0))
	assert.Nil(t, New(1, 1, sign.Color24Bit).Paletted())
}

func TestMonochromePalette(t *testing.T) {
	p := MonochromePalette(sign.Monochrome8Bit, color.RGBA{0, 0, 0, 0xff}, color.RGBA{0xff, 0x80, 0, 0xff})
	require.Len(t, p, 256)
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, p[0])
	assert.Equal(t, color.RGBA{0xff, 0x80, 0, 0xff}, p[255])
}
