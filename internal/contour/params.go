// Package contour extracts iso-level contours from a bitmap with marching
// squares, stitches the cell segments into polygons and draws the result
// back onto a bitmap.
package contour

import (
	"fmt"

	"contour-tracer/pkg/geometry"
)

// Defaults used when no configuration overrides them.
const (
	DefaultIsovalue = 57
	DefaultStep     = 5
)

// Params is one consistent set of tracing parameters. Values are copied,
// never shared, so a trace always sees a single snapshot.
type Params struct {
	Isovalue int `json:"isovalue"`  // threshold in [0, 255]
	Step     int `json:"step_size"` // cell edge length in pixels, at least 1

	// BinaryInterpolation places crossings using the binarized image
	// instead of the grayscale source.
	BinaryInterpolation bool `json:"binary_interpolation"`

	Hull geometry.HullAlgorithm `json:"-"`
}

// DefaultParams returns the standard tracing parameters.
func DefaultParams() Params {
	return Params{
		Isovalue:            DefaultIsovalue,
		Step:                DefaultStep,
		BinaryInterpolation: true,
		Hull:                geometry.HullGraham,
	}
}

// Validate reports the first out-of-range field.
func (p Params) Validate() error {
	if p.Isovalue < 0 || p.Isovalue > 255 {
		return fmt.Errorf("isovalue %d outside [0, 255]", p.Isovalue)
	}
	if p.Step < 1 || p.Step > 255 {
		return fmt.Errorf("step size %d outside [1, 255]", p.Step)
	}
	switch p.Hull {
	case geometry.HullNone, geometry.HullGraham, geometry.HullJarvis:
	default:
		return fmt.Errorf("unknown hull algorithm %d", int(p.Hull))
	}
	return nil
}
