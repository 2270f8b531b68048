package bitmap

import (
	"errors"
	"fmt"
)

// Sentinel errors. Format problems are always reported wrapped in a
// *FormatError, bounds problems in a *BoundsError and resize problems in a
// *DimensionError, so both errors.Is and errors.As work on them.
var (
	ErrBadFileType      = errors.New("not a bitmap file")
	ErrBadMaskOrder     = errors.New("mask order is not made of B, G, R or s")
	ErrUnsupportedDepth = errors.New("unsupported color depth")
	ErrTruncated        = errors.New("truncated bitmap data")
	ErrCompression      = errors.New("unsupported compression")
	ErrTooLarge         = errors.New("image exceeds the size limit")
	ErrBadOffset        = errors.New("pixel data offset overlaps the headers")
	ErrOutOfBounds      = errors.New("coordinates out of bounds")
	ErrInvalidWidth     = errors.New("width must be greater than 0")
	ErrSizeMismatch     = errors.New("operands differ in size")
)

// FormatError reports malformed binary input.
type FormatError struct {
	Op  string // decode, import, load
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bitmap: %s: %v", e.Op, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// BoundsError reports a pixel access outside the image extent. It signals a
// bug in the caller rather than bad input.
type BoundsError struct {
	X, Y          int
	Width, Height int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("bitmap: (%d, %d) outside %dx%d: %v", e.X, e.Y, e.Width, e.Height, ErrOutOfBounds)
}

func (e *BoundsError) Unwrap() error { return ErrOutOfBounds }

// DimensionError reports a resize to a non-positive width.
type DimensionError struct {
	Width, Height int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("bitmap: cannot resize to %dx%d: %v", e.Width, e.Height, ErrInvalidWidth)
}

func (e *DimensionError) Unwrap() error { return ErrInvalidWidth }

func formatError(op string, err error) error {
	return &FormatError{Op: op, Err: err}
}
