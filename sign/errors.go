package sign

import (
	"errors"
	"fmt"
	"image"
)

// The error taxonomy shared by every package of the rendering core. Use
// errors.Is to test which category a returned error belongs to.
var (
	ErrUnsupportedTag       = errors.New("unsupported tag")
	ErrUnsupportedTagValue  = errors.New("unsupported tag value")
	ErrTextTooBig           = errors.New("text too big")
	ErrFontNotDefined       = errors.New("font not defined")
	ErrCharacterNotDefined  = errors.New("character not defined")
	ErrFontVersionID        = errors.New("font version ID mismatch")
	ErrGraphicNotDefined    = errors.New("graphic not defined")
	ErrGraphicTooBig        = errors.New("graphic too big")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrPixelOutOfBounds     = errors.New("pixel out of bounds")
)

// Error locates a failure either within the MULTI string or on the page.
type Error struct {
	// Offset is the byte offset of the offending tag or text run, or -1.
	Offset int
	// Pixel is the offending coordinate, only meaningful if HasPixel.
	Pixel    image.Point
	HasPixel bool

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Offset >= 0:
		return fmt.Sprintf("%v (offset %d)", e.Err, e.Offset)
	case e.HasPixel:
		return fmt.Sprintf("%v (pixel %d,%d)", e.Err, e.Pixel.X, e.Pixel.Y)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf returns an error of the given kind with additional detail.
func Errorf(kind error, format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, a...))
}

// AtOffset attaches a MULTI string offset to err. If err already carries an
// offset it is returned unchanged.
func AtOffset(offset int, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Offset < 0 {
			e.Offset = offset
		}
		return err
	}
	return &Error{Offset: offset, Err: err}
}

// AtPixel attaches a page coordinate to err.
func AtPixel(x, y int, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if !e.HasPixel {
			e.Pixel, e.HasPixel = image.Pt(x, y), true
		}
		return err
	}
	return &Error{Offset: -1, Pixel: image.Pt(x, y), HasPixel: true, Err: err}
}

// Offset returns the MULTI string offset carried by err, if any.
func Offset(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.Offset >= 0 {
		return e.Offset, true
	}
	return 0, false
}
