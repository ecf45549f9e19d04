package sign

import (
	"fmt"
	"image/color"
	"strings"
)

// ColorScheme is the color capability of a sign, numbered as in NTCIP 1203.
type ColorScheme int

const (
	Monochrome1Bit ColorScheme = iota + 1
	Monochrome8Bit
	ColorClassic
	Color24Bit
)

var schemeNames = map[ColorScheme]string{
	Monochrome1Bit: "monochrome1bit",
	Monochrome8Bit: "monochrome8bit",
	ColorClassic:   "colorClassic",
	Color24Bit:     "color24bit",
}

// Valid reports whether s is one of the defined schemes.
func (s ColorScheme) Valid() bool {
	_, ok := schemeNames[s]
	return ok
}

func (s ColorScheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ColorScheme(%d)", int(s))
}

// Monochrome reports whether s is one of the two monochrome schemes.
func (s ColorScheme) Monochrome() bool {
	return s == Monochrome1Bit || s == Monochrome8Bit
}

// MarshalText implements encoding.TextMarshaler.
func (s ColorScheme) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: color scheme %d", ErrInvalidConfiguration, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ColorScheme) UnmarshalText(b []byte) error {
	v, err := ParseColorScheme(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseColorScheme accepts either the NTCIP name or number of a scheme.
func ParseColorScheme(name string) (ColorScheme, error) {
	for s, n := range schemeNames {
		if strings.EqualFold(n, name) || fmt.Sprint(int(s)) == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown color scheme %q", ErrInvalidConfiguration, name)
}

// Classic color indices.
const (
	ClassicBlack = iota
	ClassicRed
	ClassicYellow
	ClassicGreen
	ClassicCyan
	ClassicBlue
	ClassicMagenta
	ClassicWhite
	ClassicOrange
)

// ClassicPalette is the fixed NTCIP classic palette.
var ClassicPalette = color.Palette{
	color.RGBA{0x00, 0x00, 0x00, 0xff},
	color.RGBA{0xff, 0x00, 0x00, 0xff},
	color.RGBA{0xff, 0xff, 0x00, 0xff},
	color.RGBA{0x00, 0xff, 0x00, 0xff},
	color.RGBA{0x00, 0xff, 0xff, 0xff},
	color.RGBA{0x00, 0x00, 0xff, 0xff},
	color.RGBA{0xff, 0x00, 0xff, 0xff},
	color.RGBA{0xff, 0xff, 0xff, 0xff},
	color.RGBA{0xff, 0xa5, 0x00, 0xff},
}

// Color is a color value tagged with the scheme it is expressed in. Value
// holds the 1-bit or 8-bit level, or the classic index; R, G and B are only
// used by Color24Bit values.
type Color struct {
	Scheme  ColorScheme
	Value   uint8
	R, G, B uint8
}

// Mono1 returns a 1-bit monochrome color, any non-zero level is "on".
func Mono1(on bool) Color {
	c := Color{Scheme: Monochrome1Bit}
	if on {
		c.Value = 1
	}
	return c
}

// Mono8 returns an 8-bit monochrome level.
func Mono8(level uint8) Color { return Color{Scheme: Monochrome8Bit, Value: level} }

// Classic returns a classic palette color.
func Classic(index uint8) Color { return Color{Scheme: ColorClassic, Value: index} }

// RGB returns a 24-bit color.
func RGB(r, g, b uint8) Color { return Color{Scheme: Color24Bit, R: r, G: g, B: b} }

func (c Color) String() string {
	switch c.Scheme {
	case Color24Bit:
		return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
	case ColorClassic:
		return fmt.Sprintf("classic(%d)", c.Value)
	default:
		return fmt.Sprintf("%s(%d)", c.Scheme, c.Value)
	}
}

// In resolves c to a value of the target scheme. Classic colors resolve to
// their RGB equivalent under Color24Bit; any other cross-scheme conversion
// fails.
func (c Color) In(scheme ColorScheme) (Color, error) {
	switch {
	case c.Scheme == scheme:
		return c, nil
	case c.Scheme == ColorClassic && scheme == Color24Bit:
		if int(c.Value) >= len(ClassicPalette) {
			break
		}
		rgba := ClassicPalette[c.Value].(color.RGBA)
		return RGB(rgba.R, rgba.G, rgba.B), nil
	}
	return Color{}, Errorf(ErrUnsupportedTagValue, "%s not valid under %s", c, scheme)
}

// ParseColor resolves the numeric arguments of a color tag against a
// scheme. A single argument is a level or classic index, three arguments are
// an RGB triple and are only accepted by Color24Bit signs.
func ParseColor(args []int, scheme ColorScheme) (Color, error) {
	for _, a := range args {
		if a < 0 || a > 0xff {
			return Color{}, Errorf(ErrUnsupportedTagValue, "color component %d out of range", a)
		}
	}

	switch len(args) {
	case 1:
		v := args[0]
		switch scheme {
		case Monochrome1Bit:
			if v > 1 {
				return Color{}, Errorf(ErrUnsupportedTagValue, "level %d not valid under %s", v, scheme)
			}
			return Mono1(v == 1), nil
		case Monochrome8Bit:
			return Mono8(uint8(v)), nil
		case ColorClassic, Color24Bit:
			if v >= len(ClassicPalette) {
				return Color{}, Errorf(ErrUnsupportedTagValue, "classic color %d out of range", v)
			}
			return Classic(uint8(v)).In(scheme)
		}
	case 3:
		if scheme != Color24Bit {
			return Color{}, Errorf(ErrUnsupportedTagValue, "RGB color not valid under %s", scheme)
		}
		return RGB(uint8(args[0]), uint8(args[1]), uint8(args[2])), nil
	}

	return Color{}, Errorf(ErrUnsupportedTagValue, "%d color arguments", len(args))
}

// DefaultForeground returns the factory default foreground of a scheme.
func DefaultForeground(scheme ColorScheme) Color {
	switch scheme {
	case Monochrome1Bit:
		return Mono1(true)
	case Monochrome8Bit:
		return Mono8(0xff)
	case ColorClassic:
		return Classic(ClassicOrange)
	default:
		return RGB(0xff, 0xa5, 0x00)
	}
}

// DefaultBackground returns the factory default background of a scheme.
func DefaultBackground(scheme ColorScheme) Color {
	switch scheme {
	case Monochrome1Bit:
		return Mono1(false)
	case Monochrome8Bit:
		return Mono8(0)
	case ColorClassic:
		return Classic(ClassicBlack)
	default:
		return RGB(0, 0, 0)
	}
}
