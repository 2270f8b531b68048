package contour

import (
	"fmt"
	"image/color"
	"math"

	"contour-tracer/internal/bitmap"
	"contour-tracer/pkg/colorutil"
	"contour-tracer/pkg/geometry"
)

// Style controls how Draw renders a result.
type Style struct {
	Contour   color.RGBA
	Hull      color.RGBA
	Thickness int
}

func (s Style) String() string {
	return fmt.Sprintf("contour=%s hull=%s thickness=%d",
		colorutil.Hex(s.Contour), colorutil.Hex(s.Hull), s.Thickness)
}

// DefaultStyle draws red contours and green hulls one pixel wide.
func DefaultStyle() Style {
	return Style{Contour: colorutil.Red, Hull: colorutil.Green, Thickness: 1}
}

// Draw rasterizes the hulls, then the contours, of res onto dst.
func Draw(dst *bitmap.Bitmap, res *Result, style Style) {
	if res == nil {
		return
	}
	for _, h := range res.Hulls {
		drawPolyline(dst, h, true, style.Hull, style.Thickness)
	}
	for _, c := range res.Contours {
		drawPolyline(dst, c.Points, c.Closed, style.Contour, style.Thickness)
	}
}

func drawPolyline(dst *bitmap.Bitmap, pts geometry.Polygon, closed bool, col color.RGBA, thickness int) {
	if len(pts) == 0 {
		return
	}
	if len(pts) == 1 {
		x, y := round(pts[0])
		drawLine(dst, x, y, x, y, col, thickness)
		return
	}
	for i := 0; i+1 < len(pts); i++ {
		x1, y1 := round(pts[i])
		x2, y2 := round(pts[i+1])
		drawLine(dst, x1, y1, x2, y2, col, thickness)
	}
	if closed && len(pts) > 2 {
		x1, y1 := round(pts[len(pts)-1])
		x2, y2 := round(pts[0])
		drawLine(dst, x1, y1, x2, y2, col, thickness)
	}
}

func round(p geometry.Point) (int, int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

// plot sets one pixel, ignoring coordinates outside dst.
func plot(dst *bitmap.Bitmap, x, y int, col color.RGBA) {
	if x < 0 || y < 0 || x >= dst.Width() || y >= dst.Height() {
		return
	}
	dst.SetRGB(x, y, col.R, col.G, col.B)
	if dst.HasAlpha() {
		dst.Set(x, y, bitmap.Alpha, col.A)
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(dst *bitmap.Bitmap, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		// Draw thick point
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				plot(dst, x1+s, y1+t, col)
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}
