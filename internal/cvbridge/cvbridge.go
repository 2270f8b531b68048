//go:build gocv

// Package cvbridge extracts reference contours with OpenCV so the marching
// squares tracer can be checked against an independent implementation.
package cvbridge

import (
	"fmt"
	"math"
	"sort"

	"contour-tracer/internal/bitmap"
	"contour-tracer/internal/contour"
	"contour-tracer/pkg/geometry"

	"gocv.io/x/gocv"
)

// BGRMat copies b into a packed 8-bit BGR matrix, top row first. The caller
// must Close the result.
func BGRMat(b *bitmap.Bitmap) (gocv.Mat, error) {
	w, h := b.Width(), b.Height()
	data := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl := b.RGB(x, y)
			data = append(data, bl, g, r)
		}
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
}

// Mask converts a binarized bitmap into a single channel 0/255 mask.
func Mask(bin *bitmap.Bitmap) (gocv.Mat, error) {
	bgr, err := BGRMat(bin)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	mask := gocv.NewMat()
	gocv.Threshold(gray, &mask, 127, 255, gocv.ThresholdBinary)
	return mask, nil
}

// Contours returns the outer contours OpenCV finds in bin.
func Contours(bin *bitmap.Bitmap) ([]geometry.Polygon, error) {
	mask, err := Mask(bin)
	if err != nil {
		return nil, err
	}
	defer mask.Close()

	found := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	out := make([]geometry.Polygon, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		pts := found.At(i).ToPoints()
		poly := make(geometry.Polygon, len(pts))
		for j, p := range pts {
			poly[j] = geometry.Pt(float64(p.X), float64(p.Y))
		}
		out = append(out, poly)
	}
	return out, nil
}

// Comparison summarises how far traced contours are from the reference.
type Comparison struct {
	Traced    int
	Reference int
	// MaxOffset is the largest bounding box edge distance between a traced
	// contour and its matched reference contour.
	MaxOffset float64
}

// Within reports whether both sides found the same number of shapes and
// every match lies within tol pixels.
func (c Comparison) Within(tol float64) bool {
	return c.Traced == c.Reference && c.MaxOffset <= tol
}

func (c Comparison) String() string {
	return fmt.Sprintf("traced=%d reference=%d max_offset=%.2f", c.Traced, c.Reference, c.MaxOffset)
}

// Compare traces b with params and matches each closed contour to the
// OpenCV contour of the same binarized image with the nearest bounds.
func Compare(b *bitmap.Bitmap, params contour.Params) (Comparison, error) {
	res, err := contour.Trace(b, params)
	if err != nil {
		return Comparison{}, err
	}
	ref, err := Contours(res.Binary)
	if err != nil {
		return Comparison{}, err
	}

	var traced []geometry.Rect
	for _, c := range res.Contours {
		if c.Closed {
			traced = append(traced, c.Points.Bounds())
		}
	}
	refBounds := make([]geometry.Rect, len(ref))
	for i, p := range ref {
		refBounds[i] = p.Bounds()
	}

	cmp := Comparison{Traced: len(traced), Reference: len(ref)}
	for _, tr := range traced {
		best := math.Inf(1)
		for _, rr := range refBounds {
			best = math.Min(best, offset(tr, rr))
		}
		if !math.IsInf(best, 1) {
			cmp.MaxOffset = math.Max(cmp.MaxOffset, best)
		}
	}
	return cmp, nil
}

func offset(a, b geometry.Rect) float64 {
	am, bm := a.Max(), b.Max()
	d := []float64{
		math.Abs(a.X - b.X),
		math.Abs(a.Y - b.Y),
		math.Abs(am.X - bm.X),
		math.Abs(am.Y - bm.Y),
	}
	sort.Float64s(d)
	return d[len(d)-1]
}
