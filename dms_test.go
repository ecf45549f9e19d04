package dms

import (
	"bytes"
	"context"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/bodgit/dms/font"
	"github.com/bodgit/dms/graphic"
	"github.com/bodgit/dms/multi"
	"github.com/bodgit/dms/raster"
	"github.com/bodgit/dms/sign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// testFont returns a font of 7 by 8 glyphs. Every glyph has its top-left
// pixel lit except the space.
func testFont(t *testing.T) *font.Font {
	t.Helper()
	f := font.New(1, "test", 8, 1, 0)
	for _, r := range "ABCDEFGHIJKLMNOPQRSTUVWXYZ " {
		b := make([]byte, (7*8+7)>>3)
		if r != ' ' {
			for i := range b {
				b[i] = 0xff
			}
		}
		require.NoError(t, f.Add(font.Glyph{CodePoint: uint16(r), Width: 7, Bitmap: b}))
	}
	return f
}

func testContext(t *testing.T, scheme sign.ColorScheme) multi.Context {
	t.Helper()
	c := &sign.Config{
		Name:        "test",
		FaceWidth:   2000,
		FaceHeight:  1000,
		PitchHoriz:  10,
		PitchVert:   10,
		PixelWidth:  40,
		PixelHeight: 8,
		ColorScheme: scheme,
		DefaultFont: 1,
	}
	require.NoError(t, c.Validate())

	fonts := font.NewTable(4)
	require.NoError(t, fonts.Load(testFont(t)))

	graphics := graphic.NewTable(4)
	g := graphic.New(1, "white", 8, 8, scheme)
	white := sign.RGB(0xff, 0xff, 0xff)
	if scheme != sign.Color24Bit {
		white = sign.DefaultForeground(scheme)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			require.NoError(t, g.Set(x, y, white))
		}
	}
	require.NoError(t, graphics.Load(g))

	return multi.Context{Config: c, Fonts: fonts, Graphics: graphics}
}

func get(t *testing.T, r *raster.Raster, x, y int) sign.Color {
	t.Helper()
	c, err := r.Get(x, y)
	require.NoError(t, err)
	return c
}

func TestSimpleText(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	frames, err := Render("HELLO", ctx)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	f := frames[0]
	assert.Equal(t, 0, f.Page)
	assert.Equal(t, Steady, f.Phase)
	assert.Equal(t, 3*time.Second, f.PageOn)
	assert.Equal(t, time.Duration(0), f.PageOff)
	assert.Equal(t, sign.Mono1(true), get(t, f.Raster, 0, 0))
	// Character spacing between H and E
	assert.Equal(t, sign.Mono1(false), get(t, f.Raster, 7, 0))
	assert.Equal(t, sign.Mono1(true), get(t, f.Raster, 8, 7))
	// Five glyphs and four gaps end at x=38
	assert.Equal(t, sign.Mono1(true), get(t, f.Raster, 38, 0))
	assert.Equal(t, sign.Mono1(false), get(t, f.Raster, 39, 0))
}

func TestTwoPages(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	frames, err := Render("ABC[np]XYZ", ctx)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	for i, f := range frames {
		assert.Equal(t, i, f.Page)
		assert.Equal(t, 40, f.Raster.Width)
		assert.Equal(t, 8, f.Raster.Height)
	}

	steps := Schedule(frames)
	require.Len(t, steps, 2)
	for i, step := range steps {
		assert.Equal(t, &frames[i], step.Frame)
		assert.Equal(t, sign.DefaultPageOnTime*Decisecond, step.Duration)
	}
}

func TestColorRectangle(t *testing.T) {
	ctx := testContext(t, sign.Color24Bit)
	frames, err := Render("[cr1,1,10,4,255,0,0]", ctx)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	r := frames[0].Raster
	red, black := sign.RGB(255, 0, 0), sign.RGB(0, 0, 0)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			want := black
			if x >= 1 && x <= 10 && y >= 1 && y <= 4 {
				want = red
			}
			assert.Equal(t, want, get(t, r, x, y), "pixel (%d, %d)", x, y)
		}
	}
}

func TestGraphicPlacement(t *testing.T) {
	ctx := testContext(t, sign.Color24Bit)
	frames, err := Render("[g1,5,0]", ctx)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	r := frames[0].Raster
	white, black := sign.RGB(0xff, 0xff, 0xff), sign.RGB(0, 0, 0)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			want := black
			if x >= 5 && x < 13 {
				want = white
			}
			assert.Equal(t, want, get(t, r, x, y), "pixel (%d, %d)", x, y)
		}
	}
}

func TestJustifiedText(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	frames, err := Render("[jl4]HI", ctx)
	require.NoError(t, err)

	r := frames[0].Raster
	first := -1
	for x := 0; x < r.Width && first < 0; x++ {
		if get(t, r, x, 0) == sign.Mono1(true) {
			first = x
		}
	}
	assert.Equal(t, 25, first)
}

func TestTextTooBig(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	frames, err := Render("VERYLONGMESSAGE", ctx)
	assert.Nil(t, frames)
	assert.ErrorIs(t, err, sign.ErrTextTooBig)
	offset, ok := sign.Offset(err)
	assert.True(t, ok)
	assert.Equal(t, 0, offset)
}

func TestBoundaries(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)

	frames, err := Render("[np]", ctx)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	for _, f := range frames {
		for y := 0; y < 8; y++ {
			for x := 0; x < 40; x++ {
				assert.Equal(t, sign.Mono1(false), get(t, f.Raster, x, y))
			}
		}
	}

	_, err = Render("", ctx)
	assert.ErrorIs(t, err, sign.ErrUnsupportedTagValue)

	limit := ctx.Config.CharSpacingLimit()
	_, err = Render("[sc"+strconv.Itoa(limit)+"]A", ctx)
	assert.NoError(t, err)
	_, err = Render("[sc"+strconv.Itoa(limit+1)+"]A", ctx)
	assert.ErrorIs(t, err, sign.ErrUnsupportedTagValue)

	// An empty text rectangle leaves the background untouched
	frames, err = Render("[tr1,1,10,4]", ctx)
	require.NoError(t, err)
	empty, err := Render("[nl]", ctx)
	require.NoError(t, err)
	assert.True(t, frames[0].Raster.Equal(empty[0].Raster))

	_, err = Render("[g9]", ctx)
	assert.ErrorIs(t, err, sign.ErrGraphicNotDefined)

	_, err = Render("[f7]A", ctx)
	assert.ErrorIs(t, err, sign.ErrFontNotDefined)
}

func TestIdempotent(t *testing.T) {
	ctx := testContext(t, sign.Color24Bit)
	const ms = "[cb0,0,64]AB[cr0,0,4,4,255,0,0][g1,30,0][np][jl3]XYZ"

	a, err := Render(ms, ctx)
	require.NoError(t, err)
	b, err := Render(ms, ctx)
	require.NoError(t, err)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.True(t, a[i].Raster.Equal(b[i].Raster))
	}
	assert.Equal(t, sign.RGB(0, 0, 64), get(t, a[0].Raster, 39, 7))
}

func TestOverlap(t *testing.T) {
	ctx := testContext(t, sign.Color24Bit)

	// Later elements draw over earlier ones
	frames, err := Render("[cr0,0,40,8,255,0,0][g1,0,0]", ctx)
	require.NoError(t, err)
	assert.Equal(t, sign.RGB(0xff, 0xff, 0xff), get(t, frames[0].Raster, 0, 0))

	frames, err = Render("[g1,0,0][cr0,0,40,8,255,0,0]", ctx)
	require.NoError(t, err)
	assert.Equal(t, sign.RGB(255, 0, 0), get(t, frames[0].Raster, 0, 0))
}

func TestFlash(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	frames, err := Render("A[flt2o3]B[fo]", ctx)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	on, off := frames[0], frames[1]
	assert.Equal(t, Visible, on.Phase)
	assert.Equal(t, Hidden, off.Phase)
	assert.Equal(t, 200*time.Millisecond, on.Duration)
	assert.Equal(t, 300*time.Millisecond, off.Duration)
	assert.Equal(t, &multi.Flash{VisibleFirst: true, On: 2, Off: 3}, on.Flash)

	assert.Equal(t, sign.Mono1(true), get(t, on.Raster, 0, 0))
	assert.Equal(t, sign.Mono1(true), get(t, off.Raster, 0, 0))
	assert.Equal(t, sign.Mono1(true), get(t, on.Raster, 8, 0))
	assert.Equal(t, sign.Mono1(false), get(t, off.Raster, 8, 0))

	steps := Schedule(frames)
	require.Len(t, steps, 12)
	total := time.Duration(0)
	for i, step := range steps {
		assert.Equal(t, &frames[i%2], step.Frame)
		total += step.Duration
	}
	assert.Equal(t, 3*time.Second, total)

	// Off phase first
	frames, err = Render("[flo3t2]B[fo]", ctx)
	require.NoError(t, err)
	assert.Equal(t, Hidden, frames[0].Phase)
	assert.Equal(t, 300*time.Millisecond, frames[0].Duration)

	// Nothing inside the flash leaves a steady page
	frames, err = Render("A[fl][fo]", ctx)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, Steady, frames[0].Phase)
}

func TestSchedulePageOff(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	frames, err := Render("[pt20o5]A[np]B", ctx)
	require.NoError(t, err)

	steps := Schedule(frames)
	require.Len(t, steps, 4)
	assert.Equal(t, 2*time.Second, steps[0].Duration)
	assert.Nil(t, steps[1].Frame)
	assert.Equal(t, 500*time.Millisecond, steps[1].Duration)
	assert.Equal(t, &frames[1], steps[2].Frame)
	assert.Nil(t, steps[3].Frame)
}

func TestRenderer(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	r, err := New(ctx.Config, ctx.Fonts, ctx.Graphics, nil)
	require.NoError(t, err)

	frames, err := r.Render("HELLO")
	require.NoError(t, err)
	require.Len(t, frames, 1)

	var n int
	for f, err := range r.Frames("A[np]B") {
		require.NoError(t, err)
		assert.Equal(t, n, f.Page)
		n++
	}
	assert.Equal(t, 2, n)

	for _, err := range r.Frames("[zz]") {
		assert.ErrorIs(t, err, sign.ErrUnsupportedTag)
	}

	// Swapping tables affects later renders only
	fonts := font.NewTable(1)
	require.NoError(t, r.SetTables(fonts, ctx.Graphics))
	_, err = r.Render("HELLO")
	assert.ErrorIs(t, err, sign.ErrFontNotDefined)

	f, g := r.Tables()
	assert.Same(t, fonts, f)
	assert.Same(t, ctx.Graphics, g)
}

func TestRendererCharacterMatrix(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	ctx.Config.CharWidth = 5
	_, err := New(ctx.Config, ctx.Fonts, ctx.Graphics, nil)
	assert.ErrorIs(t, err, sign.ErrInvalidConfiguration)

	ctx.Config.CharWidth = 7
	ctx.Config.PixelWidth = 35
	_, err = New(ctx.Config, ctx.Fonts, ctx.Graphics, nil)
	assert.NoError(t, err)
}

func TestRenderAll(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	r, err := New(ctx.Config, ctx.Fonts, ctx.Graphics, nil)
	require.NoError(t, err)

	messages := []string{"HELLO", "VERYLONGMESSAGE", "A[np]B", "[zz]"}
	results, err := r.RenderAll(context.Background(), messages, 2)
	require.NoError(t, err)
	require.Len(t, results, len(messages))

	for i, result := range results {
		assert.Equal(t, i, result.Index)
		assert.Equal(t, messages[i], result.MULTI)
	}
	assert.NoError(t, results[0].Err)
	assert.Len(t, results[0].Frames, 1)
	assert.ErrorIs(t, results[1].Err, sign.ErrTextTooBig)
	assert.Len(t, results[2].Frames, 2)
	assert.ErrorIs(t, results[3].Err, sign.ErrUnsupportedTag)
}

func TestEncode(t *testing.T) {
	for _, scheme := range []sign.ColorScheme{sign.Monochrome1Bit, sign.Color24Bit} {
		t.Run(scheme.String(), func(t *testing.T) {
			ctx := testContext(t, scheme)
			frames, err := Render("[pt10o5]A[flt2o3]B[fo][np]C", ctx)
			require.NoError(t, err)
			require.Len(t, frames, 3)

			b := new(bytes.Buffer)
			require.NoError(t, EncodeGIF(b, frames, ctx.Config))
			anim, err := gif.DecodeAll(b)
			require.NoError(t, err)
			// Two full flash cycles and a blank, then the second page and a blank
			assert.Equal(t, []int{20, 30, 20, 30, 50, 100, 50}, anim.Delay)

			b.Reset()
			require.NoError(t, EncodePNG(b, frames[0]))
			m, err := png.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, frames[0].Raster.Bounds(), m.Bounds())

			b.Reset()
			require.NoError(t, EncodeBMP(b, frames[2]))
			m, err = bmp.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, frames[2].Raster.Bounds(), m.Bounds())
		})
	}

	assert.Error(t, EncodeGIF(new(bytes.Buffer), nil, nil))
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCatalog(filepath.Join(dir, "test.db"), nil)
	require.NoError(t, err)
	defer c.Close()

	ctx := testContext(t, sign.Monochrome1Bit)
	f, err := ctx.Fonts.Lookup(1)
	require.NoError(t, err)
	require.NoError(t, c.AddFont(f))
	g, err := ctx.Graphics.Lookup(1)
	require.NoError(t, err)
	require.NoError(t, c.AddGraphic(g))

	fonts, err := c.Fonts()
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Number: 1, Name: "test", VersionID: f.VersionID()}}, fonts)

	graphics, err := c.Graphics()
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Number: 1, Name: "white", VersionID: g.VersionID()}}, graphics)

	ft, gt, err := c.Tables(4, 4)
	require.NoError(t, err)
	loaded, err := ft.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, f.VersionID(), loaded.VersionID())
	assert.Equal(t, 1, gt.Len())

	_, err = c.Sign("missing")
	assert.ErrorIs(t, err, sign.ErrInvalidConfiguration)

	file := filepath.Join(dir, "signs.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"vms": {
			"face_width": 2000, "face_height": 1000,
			"pitch_horiz": 10, "pitch_vert": 10,
			"pixel_width": 40, "pixel_height": 8,
			"color_scheme": "monochrome1bit",
			"default_font": 1
		}
	}`), 0o644))
	require.NoError(t, c.ImportSigns(file))

	names, err := c.Signs()
	require.NoError(t, err)
	assert.Equal(t, []string{"vms"}, names)

	r, err := c.Renderer("vms")
	require.NoError(t, err)
	assert.Equal(t, "vms", r.Config().Name)
	frames, err := r.Render("HELLO")
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}

func TestFramesNoPartial(t *testing.T) {
	ctx := testContext(t, sign.ColorClassic)

	bad := graphic.New(2, "bad", 2, 2, sign.ColorClassic)
	bad.Bitmap[0] = 9
	assert.Error(t, ctx.Graphics.Load(bad))

	// Corrupt a graphic after loading so only drawing can find it
	g := graphic.New(2, "corrupt", 2, 2, sign.ColorClassic)
	require.NoError(t, ctx.Graphics.Load(g))
	g.Bitmap[0] = 9

	r, err := New(ctx.Config, ctx.Fonts, ctx.Graphics, nil)
	require.NoError(t, err)

	var (
		frames int
		errs   []error
	)
	for _, err := range r.Frames("ABC[np][g2]") {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		frames++
	}
	assert.Equal(t, 0, frames)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], sign.ErrUnsupportedTagValue)
}

func TestRenderInvalidConfig(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	ctx.Config.FaceWidth = 10

	frames, err := Render("HELLO", ctx)
	assert.Nil(t, frames)
	assert.ErrorIs(t, err, sign.ErrInvalidConfiguration)
}

func TestScheduleZeroFlash(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)

	frames, err := Render("A[flt0o0]B[fo][np]C", ctx)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, time.Duration(sign.DefaultFlashOnTime)*Decisecond, frames[0].Duration)
	assert.Equal(t, time.Duration(sign.DefaultFlashOffTime)*Decisecond, frames[1].Duration)

	steps := Schedule(frames)
	// Three one second flash cycles then the second page
	require.Len(t, steps, 7)
	assert.Equal(t, 0, steps[0].Frame.Page)
	assert.Equal(t, 1, steps[6].Frame.Page)

	// A page whose flash phases have no duration still shows
	for i := range frames[:2] {
		frames[i].Duration = 0
	}
	steps = Schedule(frames)
	require.Len(t, steps, 2)
	assert.Equal(t, &frames[0], steps[0].Frame)
	assert.Equal(t, 3*time.Second, steps[0].Duration)
	assert.Equal(t, &frames[2], steps[1].Frame)
}

func TestRenderAllCancelled(t *testing.T) {
	ctx := testContext(t, sign.Monochrome1Bit)
	r, err := New(ctx.Config, ctx.Fonts, ctx.Graphics, nil)
	require.NoError(t, err)

	cctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := r.RenderAll(cctx, []string{"A", "B", "C"}, 2)
	assert.Error(t, err)
	assert.Nil(t, results)
}

func TestCatalogOpenFailure(t *testing.T) {
	_, err := NewCatalog(filepath.Join(t.TempDir(), "missing", "test.db"), nil)
	assert.Error(t, err)
}
