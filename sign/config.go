/*
Package sign describes the capabilities of a dynamic message sign: its face
geometry, pixel matrix, color scheme and the defaults MULTI messages fall
back to. It also defines the color model and the error taxonomy shared by
the rest of the rendering core.
*/
package sign

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
)

// Factory defaults used when a Config leaves a value unset.
const (
	DefaultPageOnTime     = 30 // tenths of a second
	DefaultPageOffTime    = 0
	DefaultFlashOnTime    = 5
	DefaultFlashOffTime   = 5
	DefaultMaxCharSpacing = 15
)

// MaxTime is the longest page or flash time a MULTI tag may carry, in
// tenths of a second.
const MaxTime = 255

// Config is the declared geometry and defaults of a sign. Physical
// dimensions are in millimetres.
type Config struct {
	Name string `json:"-"`

	FaceWidth   int `json:"face_width"`
	FaceHeight  int `json:"face_height"`
	BorderHoriz int `json:"border_horiz"`
	BorderVert  int `json:"border_vert"`
	PitchHoriz  int `json:"pitch_horiz"`
	PitchVert   int `json:"pitch_vert"`

	PixelWidth  int `json:"pixel_width"`
	PixelHeight int `json:"pixel_height"`

	// Zero means variable width or height.
	CharWidth  int `json:"char_width"`
	CharHeight int `json:"char_height"`

	ColorScheme ColorScheme `json:"color_scheme"`
	DefaultFont int         `json:"default_font"`

	ModuleWidth  int `json:"module_width,omitempty"`
	ModuleHeight int `json:"module_height,omitempty"`

	// Colors are given as MULTI color tag arguments.
	DefaultForeground []int `json:"default_foreground,omitempty"`
	DefaultBackground []int `json:"default_background,omitempty"`
	// Device colors of the lit and unlit LEDs of a monochrome sign.
	MonochromeForeground []uint8 `json:"monochrome_foreground,omitempty"`
	MonochromeBackground []uint8 `json:"monochrome_background,omitempty"`

	DefaultLineJustification LineJustification `json:"default_line_justification,omitempty"`
	DefaultPageJustification PageJustification `json:"default_page_justification,omitempty"`

	// Tenths of a second, zero selects the factory default.
	DefaultPageOnTime   int `json:"default_page_on_time,omitempty"`
	DefaultPageOffTime  int `json:"default_page_off_time,omitempty"`
	DefaultFlashOnTime  int `json:"default_flash_on_time,omitempty"`
	DefaultFlashOffTime int `json:"default_flash_off_time,omitempty"`

	DefaultCharSpacing int `json:"default_char_spacing,omitempty"`
	DefaultLineSpacing int `json:"default_line_spacing,omitempty"`
	MaxCharSpacing     int `json:"max_char_spacing,omitempty"`
}

func invalid(format string, a ...interface{}) error {
	return Errorf(ErrInvalidConfiguration, format, a...)
}

// Validate checks the geometric invariants of the configuration. Checks
// that need the font table are done by the renderer.
func (c *Config) Validate() error {
	if !c.ColorScheme.Valid() {
		return invalid("color scheme %d", int(c.ColorScheme))
	}
	if c.PixelWidth <= 0 || c.PixelHeight <= 0 {
		return invalid("pixel matrix %dx%d", c.PixelWidth, c.PixelHeight)
	}
	if c.PitchHoriz < 0 || c.PitchVert < 0 || c.BorderHoriz < 0 || c.BorderVert < 0 {
		return invalid("negative pitch or border")
	}
	if c.BorderHoriz+c.PitchHoriz*c.PixelWidth > c.FaceWidth {
		return invalid("%d pixels at %dmm pitch with %dmm border exceed %dmm face width", c.PixelWidth, c.PitchHoriz, c.BorderHoriz, c.FaceWidth)
	}
	if c.BorderVert+c.PitchVert*c.PixelHeight > c.FaceHeight {
		return invalid("%d pixels at %dmm pitch with %dmm border exceed %dmm face height", c.PixelHeight, c.PitchVert, c.BorderVert, c.FaceHeight)
	}
	if c.CharWidth < 0 || c.CharHeight < 0 {
		return invalid("negative character cell")
	}
	if c.CharWidth > 0 && c.PixelWidth%c.CharWidth != 0 {
		return invalid("pixel width %d is not a multiple of character width %d", c.PixelWidth, c.CharWidth)
	}
	if c.CharHeight > 0 && c.PixelHeight%c.CharHeight != 0 {
		return invalid("pixel height %d is not a multiple of character height %d", c.PixelHeight, c.CharHeight)
	}
	if c.DefaultFont < 0 || c.DefaultFont > 0xff {
		return invalid("default font %d", c.DefaultFont)
	}
	if c.ModuleWidth < 0 || c.ModuleHeight < 0 {
		return invalid("negative module size")
	}
	if c.ModuleWidth > 0 && c.PixelWidth%c.ModuleWidth != 0 {
		return invalid("pixel width %d is not a multiple of module width %d", c.PixelWidth, c.ModuleWidth)
	}
	if c.ModuleHeight > 0 && c.PixelHeight%c.ModuleHeight != 0 {
		return invalid("pixel height %d is not a multiple of module height %d", c.PixelHeight, c.ModuleHeight)
	}
	for _, args := range [][]int{c.DefaultForeground, c.DefaultBackground} {
		if args == nil {
			continue
		}
		if _, err := ParseColor(args, c.ColorScheme); err != nil {
			return invalid("default color: %v", err)
		}
	}
	for _, rgb := range [][]uint8{c.MonochromeForeground, c.MonochromeBackground} {
		if rgb != nil && len(rgb) != 3 {
			return invalid("monochrome color needs 3 components")
		}
	}
	if c.DefaultLineJustification != 0 && (!c.DefaultLineJustification.Valid() || c.DefaultLineJustification == LineOther) {
		return invalid("default line justification %d", c.DefaultLineJustification)
	}
	if c.DefaultPageJustification != 0 && (!c.DefaultPageJustification.Valid() || c.DefaultPageJustification == PageOther) {
		return invalid("default page justification %d", c.DefaultPageJustification)
	}
	for _, t := range []int{c.DefaultPageOnTime, c.DefaultPageOffTime, c.DefaultFlashOnTime, c.DefaultFlashOffTime} {
		if t < 0 || t > MaxTime {
			return invalid("time %d out of range", t)
		}
	}
	if c.DefaultCharSpacing < 0 || c.DefaultLineSpacing < 0 || c.MaxCharSpacing < 0 {
		return invalid("negative spacing")
	}
	if c.DefaultCharSpacing > c.CharSpacingLimit() {
		return invalid("default character spacing %d exceeds %d", c.DefaultCharSpacing, c.CharSpacingLimit())
	}
	return nil
}

// Bounds returns the pixel area of the sign.
func (c *Config) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.PixelWidth, c.PixelHeight)
}

// PixelToMM returns the physical position of the top-left corner of pixel
// (x, y), measured from the top-left corner of the face.
func (c *Config) PixelToMM(x, y int) (int, int) {
	return c.BorderHoriz + x*c.PitchHoriz, c.BorderVert + y*c.PitchVert
}

// Extent returns the physical size of the pixel matrix.
func (c *Config) Extent() (int, int) {
	return c.PitchHoriz * c.PixelWidth, c.PitchVert * c.PixelHeight
}

// CharacterMatrix reports whether the sign has fixed-width character cells.
func (c *Config) CharacterMatrix() bool {
	return c.CharWidth > 0
}

// LineMatrix reports whether the sign has fixed-height lines.
func (c *Config) LineMatrix() bool {
	return c.CharHeight > 0
}

// Foreground returns the default foreground color.
func (c *Config) Foreground() Color {
	if col, err := ParseColor(c.DefaultForeground, c.ColorScheme); err == nil {
		return col
	}
	return DefaultForeground(c.ColorScheme)
}

// Background returns the default background color.
func (c *Config) Background() Color {
	if col, err := ParseColor(c.DefaultBackground, c.ColorScheme); err == nil {
		return col
	}
	return DefaultBackground(c.ColorScheme)
}

// MonochromeColors returns the device colors of an unlit and a fully lit
// pixel of a monochrome sign.
func (c *Config) MonochromeColors() (color.RGBA, color.RGBA) {
	off, on := color.RGBA{0x00, 0x00, 0x00, 0xff}, color.RGBA{0xff, 0xb4, 0x00, 0xff}
	if len(c.MonochromeBackground) == 3 {
		off = color.RGBA{c.MonochromeBackground[0], c.MonochromeBackground[1], c.MonochromeBackground[2], 0xff}
	}
	if len(c.MonochromeForeground) == 3 {
		on = color.RGBA{c.MonochromeForeground[0], c.MonochromeForeground[1], c.MonochromeForeground[2], 0xff}
	}
	return off, on
}

// LineJustification returns the default line justification.
func (c *Config) LineJustification() LineJustification {
	if c.DefaultLineJustification == 0 {
		return LineLeft
	}
	return c.DefaultLineJustification
}

// PageJustification returns the default page justification.
func (c *Config) PageJustification() PageJustification {
	if c.DefaultPageJustification == 0 {
		return PageTop
	}
	return c.DefaultPageJustification
}

func orDefault(v, d int) int {
	if v == 0 {
		return d
	}
	return v
}

// PageOnTime returns the default page on time in tenths of a second.
func (c *Config) PageOnTime() int { return orDefault(c.DefaultPageOnTime, DefaultPageOnTime) }

// PageOffTime returns the default page off time in tenths of a second.
func (c *Config) PageOffTime() int { return orDefault(c.DefaultPageOffTime, DefaultPageOffTime) }

// FlashOnTime returns the default flash on time in tenths of a second.
func (c *Config) FlashOnTime() int { return orDefault(c.DefaultFlashOnTime, DefaultFlashOnTime) }

// FlashOffTime returns the default flash off time in tenths of a second.
func (c *Config) FlashOffTime() int { return orDefault(c.DefaultFlashOffTime, DefaultFlashOffTime) }

// CharSpacingLimit returns the largest value accepted by the [sc] tag.
func (c *Config) CharSpacingLimit() int {
	if c.CharacterMatrix() {
		return 0
	}
	return orDefault(c.MaxCharSpacing, DefaultMaxCharSpacing)
}

// LoadConfigs decodes a JSON object mapping configuration names to their
// attributes. Every configuration is validated.
func LoadConfigs(r io.Reader) (map[string]*Config, error) {
	var configs map[string]*Config
	if err := json.NewDecoder(r).Decode(&configs); err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	for name, c := range configs {
		if c == nil {
			return nil, fmt.Errorf("sign: %q: %w", name, ErrInvalidConfiguration)
		}
		c.Name = name
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("sign: %q: %w", name, err)
		}
	}
	return configs, nil
}
