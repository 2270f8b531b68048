package geometry

import (
	"fmt"
	"sort"
)

// HullAlgorithm selects the convex hull implementation.
type HullAlgorithm int

const (
	// HullNone disables hull computation.
	HullNone HullAlgorithm = iota
	// HullGraham selects the Graham scan.
	HullGraham
	// HullJarvis selects the Jarvis march (gift wrapping).
	HullJarvis
)

func (a HullAlgorithm) String() string {
	switch a {
	case HullGraham:
		return "graham"
	case HullJarvis:
		return "jarvis"
	default:
		return "none"
	}
}

// ParseHullAlgorithm maps a configuration name to a HullAlgorithm.
func ParseHullAlgorithm(name string) (HullAlgorithm, error) {
	switch name {
	case "graham", "":
		return HullGraham, nil
	case "jarvis":
		return HullJarvis, nil
	case "none":
		return HullNone, nil
	}
	return HullNone, fmt.Errorf("unknown hull algorithm %q", name)
}

// ConvexHull computes the hull of points with the selected algorithm.
// HullNone returns nil.
func ConvexHull(points []Point, alg HullAlgorithm) Polygon {
	switch alg {
	case HullGraham:
		return GrahamScan(points)
	case HullJarvis:
		return JarvisMarch(points)
	default:
		return nil
	}
}

// JarvisMarch computes the convex hull by gift wrapping, starting at the
// leftmost (then lowest) point and proceeding counter-clockwise. Inputs of
// three points or fewer are returned unchanged. Collinear candidates resolve
// to the farthest point, so a fully collinear set yields its two endpoints.
func JarvisMarch(points []Point) Polygon {
	n := len(points)
	if n <= 3 {
		return clonePoints(points)
	}

	left := 0
	for i := 1; i < n; i++ {
		if points[i].X < points[left].X ||
			(points[i].X == points[left].X && points[i].Y < points[left].Y) {
			left = i
		}
	}

	hull := Polygon{points[left]}
	p := left
	for len(hull) <= n {
		q := (p + 1) % n
		for i := 0; i < n; i++ {
			if i == p {
				continue
			}
			c := Cross(points[p], points[i], points[q])
			if c > 0 || (c == 0 && distSq(points[p], points[i]) > distSq(points[p], points[q])) {
				q = i
			}
		}
		if points[q] == points[left] {
			break
		}
		hull = append(hull, points[q])
		p = q
	}

	return hull
}

// GrahamScan computes the convex hull in counter-clockwise order starting at
// the lowest (then leftmost) point. Inputs of three points or fewer are
// returned unchanged; a fully collinear set yields its two endpoints.
func GrahamScan(points []Point) Polygon {
	n := len(points)
	if n <= 3 {
		return clonePoints(points)
	}

	// Find the point with lowest y (and leftmost if tied)
	lowest := 0
	for i := 1; i < n; i++ {
		if points[i].Y < points[lowest].Y ||
			(points[i].Y == points[lowest].Y && points[i].X < points[lowest].X) {
			lowest = i
		}
	}
	pivot := points[lowest]

	rest := make([]Point, 0, n-1)
	for _, p := range points {
		if p != pivot {
			rest = append(rest, p)
		}
	}

	// Sort by polar angle around the pivot, nearer first when collinear
	sort.SliceStable(rest, func(i, j int) bool {
		c := Cross(pivot, rest[i], rest[j])
		if c == 0 {
			return distSq(pivot, rest[i]) < distSq(pivot, rest[j])
		}
		return c > 0
	})

	// Keep only the farthest point of each run sharing an angle
	m := 0
	for i := 0; i < len(rest); i++ {
		for i < len(rest)-1 && Collinear(pivot, rest[i], rest[i+1]) {
			i++
		}
		rest[m] = rest[i]
		m++
	}
	rest = rest[:m]

	if len(rest) < 2 {
		return append(Polygon{pivot}, rest...)
	}

	stack := Polygon{pivot, rest[0], rest[1]}
	for _, p := range rest[2:] {
		for len(stack) > 1 && !CounterClockwise(stack[len(stack)-2], stack[len(stack)-1], p) {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, p)
	}

	return stack
}

func clonePoints(points []Point) Polygon {
	if points == nil {
		return nil
	}
	out := make(Polygon, len(points))
	copy(out, points)
	return out
}
