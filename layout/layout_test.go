package layout

import (
	"image"
	"testing"

	"github.com/bodgit/dms/font"
	"github.com/bodgit/dms/graphic"
	"github.com/bodgit/dms/multi"
	"github.com/bodgit/dms/sign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFont(t *testing.T, number, width, height, cs, ls uint8, runes string) *font.Font {
	t.Helper()
	f := font.New(number, "solid", height, cs, ls)
	for _, r := range runes {
		b := make([]byte, (int(width)*int(height)+7)>>3)
		for i := range b {
			b[i] = 0xff
		}
		require.NoError(t, f.Add(font.Glyph{CodePoint: uint16(r), Width: width, Bitmap: b}))
	}
	return f
}

func testContext(t *testing.T, width, height int) multi.Context {
	t.Helper()
	c := &sign.Config{
		FaceWidth:   2000,
		FaceHeight:  1000,
		PitchHoriz:  10,
		PitchVert:   10,
		PixelWidth:  width,
		PixelHeight: height,
		ColorScheme: sign.Monochrome1Bit,
		DefaultFont: 1,
	}
	require.NoError(t, c.Validate())

	fonts := font.NewTable(4)
	require.NoError(t, fonts.Load(solidFont(t, 1, 7, 8, 1, 0, "ABCDEFGHIJKLMNOPQRSTUVWXYZ ")))
	require.NoError(t, fonts.Load(solidFont(t, 2, 3, 4, 2, 2, "ABC ")))

	graphics := graphic.NewTable(1)
	require.NoError(t, graphics.Load(graphic.New(1, "block", 8, 8, sign.Monochrome1Bit)))

	return multi.Context{Config: c, Fonts: fonts, Graphics: graphics}
}

func plan(t *testing.T, ms string, ctx multi.Context) []Plan {
	t.Helper()
	m, err := multi.Parse(ms, ctx)
	require.NoError(t, err)
	plans, err := Layout(m, ctx.Config)
	require.NoError(t, err)
	return plans
}

// positions returns the top-left corner of every glyph operation.
func positions(p Plan) []image.Point {
	var pts []image.Point
	for _, op := range p.Ops {
		if op.Kind == Glyph {
			pts = append(pts, op.At)
		}
	}
	return pts
}

func layoutError(t *testing.T, ms string, ctx multi.Context) error {
	t.Helper()
	m, err := multi.Parse(ms, ctx)
	require.NoError(t, err)
	_, err = Layout(m, ctx.Config)
	return err
}

func TestLeft(t *testing.T) {
	plans := plan(t, "HELLO", testContext(t, 40, 8))
	require.Len(t, plans, 1)

	p := plans[0]
	assert.Equal(t, image.Rect(0, 0, 40, 8), p.Bounds)
	assert.Equal(t, sign.DefaultPageOnTime, p.PageOn)
	assert.False(t, p.Flashing())
	assert.Equal(t, []image.Point{{0, 0}, {8, 0}, {16, 0}, {24, 0}, {32, 0}}, positions(p))
}

func TestJustifyLine(t *testing.T) {
	ctx := testContext(t, 40, 8)

	tables := []struct {
		ms   string
		want []image.Point
	}{
		{"[jl4]HI", []image.Point{{25, 0}, {33, 0}}},
		{"[jl3]HI", []image.Point{{12, 0}, {20, 0}}},
		{"[jl2]A[jl3]B[jl4]C", []image.Point{{0, 0}, {16, 0}, {33, 0}}},
		{"[jl5]A B", []image.Point{{0, 0}, {8, 0}, {33, 0}}},
		{"[jl5]AB", []image.Point{{0, 0}, {8, 0}}},
	}

	for _, table := range tables {
		t.Run(table.ms, func(t *testing.T) {
			plans := plan(t, table.ms, ctx)
			assert.Equal(t, table.want, positions(plans[0]))
		})
	}
}

func TestJustifyFullRemainder(t *testing.T) {
	// 3 glyphs of 3 pixels, 2 spaces of 3 pixels, 4 gaps of 2 pixels
	// leaves 12 free pixels over 2 spaces on a 35 pixel sign
	ctx := testContext(t, 35, 8)
	plans := plan(t, "[f2][jl5]A B C", ctx)
	assert.Equal(t, []image.Point{{0, 0}, {5, 0}, {8 + 6 + 2, 0}, {21, 0}, {24 + 6 + 2, 0}}, positions(plans[0]))

	ctx = testContext(t, 36, 8)
	plans = plan(t, "[f2][jl5]A B C", ctx)
	pts := positions(plans[0])
	// The odd pixel goes to the leftmost space
	assert.Equal(t, image.Pt(8+7+2, 0), pts[2])
	assert.Equal(t, image.Pt(33, 0), pts[4])
}

func TestJustifyPage(t *testing.T) {
	ctx := testContext(t, 40, 13)

	tables := []struct {
		ms string
		y  int
	}{
		{"A", 0},
		{"[jp2]A", 0},
		{"[jp3]A", 2},
		{"[jp4]A", 5},
	}
	for _, table := range tables {
		plans := plan(t, table.ms, ctx)
		assert.Equal(t, []image.Point{{0, table.y}}, positions(plans[0]), table.ms)
	}
}

func TestLineSpacing(t *testing.T) {
	ctx := testContext(t, 40, 24)

	plans := plan(t, "A[nl]B", ctx)
	assert.Equal(t, []image.Point{{0, 0}, {0, 8}}, positions(plans[0]))

	plans = plan(t, "A[nl3]B", ctx)
	assert.Equal(t, []image.Point{{0, 0}, {0, 11}}, positions(plans[0]))

	// Font 2 has line spacing 2 which wins over font 1
	plans = plan(t, "A[nl][f2]B", ctx)
	assert.Equal(t, []image.Point{{0, 0}, {0, 10}}, positions(plans[0]))

	// Smaller glyphs sit on the bottom of the line
	plans = plan(t, "A[f2]B", ctx)
	assert.Equal(t, []image.Point{{0, 0}, {9, 4}}, positions(plans[0]))

	// An empty line in the middle takes space, a trailing one does not
	plans = plan(t, "A[nl][nl]B[nl]", ctx)
	assert.Equal(t, []image.Point{{0, 0}, {0, 16}}, positions(plans[0]))
	plans = plan(t, "[jp4]A[nl]", ctx)
	assert.Equal(t, []image.Point{{0, 16}}, positions(plans[0]))
}

func TestCharSpacing(t *testing.T) {
	ctx := testContext(t, 40, 8)

	plans := plan(t, "[sc3]AB", ctx)
	assert.Equal(t, []image.Point{{0, 0}, {10, 0}}, positions(plans[0]))

	plans = plan(t, "[sc0]AB[/sc]C", ctx)
	assert.Equal(t, []image.Point{{0, 0}, {7, 0}, {15, 0}}, positions(plans[0]))

	// Between fonts the larger spacing applies
	plans = plan(t, "A[f2]B", ctx)
	assert.Equal(t, 9, positions(plans[0])[1].X)

	ctx.Config.DefaultCharSpacing = 4
	plans = plan(t, "AB", ctx)
	assert.Equal(t, 11, positions(plans[0])[1].X)
}

func TestTextRect(t *testing.T) {
	ctx := testContext(t, 40, 16)

	plans := plan(t, "[tr10,8,30,8][jl4]A", ctx)
	assert.Equal(t, []image.Point{{33, 8}}, positions(plans[0]))

	plans = plan(t, "[tr0,0,20,16][jp3]A[tr20,0,20,16][jp4]B", ctx)
	assert.Equal(t, []image.Point{{0, 4}, {20, 8}}, positions(plans[0]))
}

func TestTextTooBig(t *testing.T) {
	ctx := testContext(t, 40, 8)

	err := layoutError(t, "VERYLONGMESSAGE", ctx)
	assert.ErrorIs(t, err, sign.ErrTextTooBig)
	offset, ok := sign.Offset(err)
	assert.True(t, ok)
	assert.Equal(t, 0, offset)

	err = layoutError(t, "ABC[f2]ABCABC", ctx)
	assert.ErrorIs(t, err, sign.ErrTextTooBig)
	offset, _ = sign.Offset(err)
	assert.Equal(t, 7, offset)

	err = layoutError(t, "A[nl]B", ctx)
	assert.ErrorIs(t, err, sign.ErrTextTooBig)
	offset, _ = sign.Offset(err)
	assert.Equal(t, 5, offset)

	err = layoutError(t, "[jl2]ABC[jl4]ABC", ctx)
	assert.ErrorIs(t, err, sign.ErrTextTooBig)
}

func TestCharacterMatrix(t *testing.T) {
	ctx := testContext(t, 35, 16)
	ctx.Config.CharWidth = 7
	ctx.Config.CharHeight = 8
	require.NoError(t, ctx.Config.Validate())

	plans := plan(t, "AB[nl]C", ctx)
	assert.Equal(t, []image.Point{{0, 0}, {7, 0}, {0, 8}}, positions(plans[0]))

	// Centered text snaps to the cell grid
	plans = plan(t, "[jl3]AB", ctx)
	assert.Equal(t, []image.Point{{7, 0}, {14, 0}}, positions(plans[0]))

	plans = plan(t, "[jp3]A", ctx)
	assert.Equal(t, []image.Point{{0, 0}}, positions(plans[0]))
}

func TestOrder(t *testing.T) {
	ctx := testContext(t, 40, 8)
	plans := plan(t, "A[cr0,0,4,4,0][g1,16,0]B[flt2o3]C[fo]", ctx)
	require.Len(t, plans, 1)

	var kinds []Kind
	for _, op := range plans[0].Ops {
		kinds = append(kinds, op.Kind)
	}
	assert.Equal(t, []Kind{Glyph, Fill, Graphic, Glyph, Glyph}, kinds)

	ops := plans[0].Ops
	assert.True(t, ops[4].Flashing)
	assert.False(t, ops[3].Flashing)
	assert.True(t, plans[0].Flashing())
	assert.Equal(t, &multi.Flash{VisibleFirst: true, On: 2, Off: 3}, plans[0].Flash)
	assert.Equal(t, image.Rect(0, 0, 4, 4), ops[1].Bounds)
	assert.Equal(t, image.Pt(16, 0), ops[2].At)
}

func TestPages(t *testing.T) {
	plans := plan(t, "ABC[np]XYZ", testContext(t, 40, 8))
	require.Len(t, plans, 2)
	assert.Equal(t, 0, plans[0].Page)
	assert.Equal(t, 1, plans[1].Page)
	assert.Len(t, plans[1].Ops, 3)

	plans = plan(t, "[np]", testContext(t, 40, 8))
	require.Len(t, plans, 2)
	assert.Empty(t, plans[0].Ops)
	assert.Empty(t, plans[1].Ops)
}
