package geometry

import "math"

// Cross returns the scalar cross product of the edge vectors o→a and a→b.
// Zero means the three points are collinear; a positive value means o, a, b
// make a counter-clockwise turn in a y-up frame.
func Cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-a.Y) - (a.Y-o.Y)*(b.X-a.X)
}

// CounterClockwise reports whether p1, p2, p3 turn counter-clockwise.
func CounterClockwise(p1, p2, p3 Point) bool {
	return Cross(p1, p2, p3) > 0
}

// Collinear reports whether p1, p2, p3 lie on one line.
func Collinear(p1, p2, p3 Point) bool {
	return Cross(p1, p2, p3) == 0
}

// Convex reports whether every turn along the closed outline has the same
// direction. Collinear runs are ignored; fewer than three vertices is never
// convex.
func (p Polygon) Convex() bool {
	n := len(p)
	if n < 3 {
		return false
	}
	var left, right bool
	for i := range p {
		switch c := Cross(p[i], p[(i+1)%n], p[(i+2)%n]); {
		case c > 0:
			left = true
		case c < 0:
			right = true
		}
		if left && right {
			return false
		}
	}
	return left || right
}

// Contains reports whether pt lies inside the closed outline or on its
// boundary, using the winding number.
func (p Polygon) Contains(pt Point) bool {
	n := len(p)
	if n < 3 {
		return false
	}
	winding := 0
	for i := range p {
		a, b := p[i], p[(i+1)%n]
		c := Cross(a, b, pt)
		if c == 0 && onSegment(a, b, pt) {
			return true
		}
		if a.Y <= pt.Y {
			if b.Y > pt.Y && c > 0 {
				winding++
			}
		} else if b.Y <= pt.Y && c < 0 {
			winding--
		}
	}
	return winding != 0
}

// onSegment reports whether pt, already known to be collinear with a and b,
// falls between them.
func onSegment(a, b, pt Point) bool {
	return pt.X >= math.Min(a.X, b.X) && pt.X <= math.Max(a.X, b.X) &&
		pt.Y >= math.Min(a.Y, b.Y) && pt.Y <= math.Max(a.Y, b.Y)
}

// distSq computes the squared distance between two points.
func distSq(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
