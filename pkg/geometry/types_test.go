package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEdgeCanonical(t *testing.T) {
	a := Pt(5, 10)
	b := Pt(5, 5)

	assert.Equal(t, NewEdge(a, b), NewEdge(b, a))
	assert.Equal(t, b, NewEdge(a, b).A)
	assert.Equal(t, Pt(5, 7.5), NewEdge(a, b).Midpoint())

	seen := map[Edge]int{NewEdge(a, b): 1}
	seen[NewEdge(b, a)]++
	assert.Len(t, seen, 1)
}

func TestPointArithmetic(t *testing.T) {
	p := Pt(1, 2).Add(Pt(3, 4)).Scale(2)
	assert.Equal(t, Pt(8, 12), p)
	assert.Equal(t, Pt(-2, -2), Pt(1, 2).Sub(Pt(3, 4)))
	assert.InDelta(t, 5.0, Pt(0, 0).Distance(Pt(3, 4)), 1e-12)
	assert.True(t, Pt(1, 9).Less(Pt(2, 0)))
	assert.True(t, Pt(1, 0).Less(Pt(1, 1)))
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox([]Point{{3, 4}, {-1, 2}, {5, -6}})
	assert.Equal(t, Rect{X: -1, Y: -6, Width: 6, Height: 10}, box)
	assert.Equal(t, Pt(5, 4), box.Max())
	assert.True(t, box.Contains(Pt(0, 0)))
	assert.Equal(t, Rect{}, BoundingBox(nil))
}

func TestPolygonArea(t *testing.T) {
	ccw := Polygon{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	assert.InDelta(t, 4.0, ccw.Area(), 1e-12)

	cw := Polygon{{0, 0}, {0, 2}, {2, 2}, {2, 0}}
	assert.InDelta(t, -4.0, cw.Area(), 1e-12)
}

func TestRectUnion(t *testing.T) {
	a := NewRect(0, 0, 2, 2)
	b := NewRect(5, -1, 1, 1)
	assert.Equal(t, Rect{X: 0, Y: -1, Width: 6, Height: 3}, a.Union(b))
	assert.Equal(t, a.Union(b), b.Union(a))
	assert.Equal(t, a, a.Union(NewRect(1, 1, 1, 1)))
}

func TestPolygonConvexAndContains(t *testing.T) {
	ell := Polygon{{0, 0}, {4, 0}, {4, 2}, {2, 2}, {2, 4}, {0, 4}}
	assert.False(t, ell.Convex())
	assert.True(t, ell.Contains(Pt(1, 3)))
	assert.True(t, ell.Contains(Pt(3, 1)))
	assert.False(t, ell.Contains(Pt(3, 3)), "notch is outside")
	assert.True(t, ell.Contains(Pt(4, 1)), "boundary counts as inside")
	assert.False(t, ell.Contains(Pt(-1, 1)))

	square := Polygon{{0, 0}, {1, 0}, {2, 0}, {2, 2}, {0, 2}}
	assert.True(t, square.Convex(), "collinear vertices are ignored")
	assert.True(t, Polygon{{0, 0}, {0, 2}, {2, 2}, {2, 0}}.Convex(), "either winding")
	assert.False(t, Polygon{{0, 0}, {1, 1}}.Convex())
	assert.False(t, Polygon{{0, 0}, {1, 1}, {2, 2}}.Convex(), "degenerate")
}
