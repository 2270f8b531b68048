package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitSquareWithInterior() []Point {
	return []Point{
		{0.5, 0.5}, {1, 1}, {0.25, 0.75}, {0, 0},
		{1, 0}, {0.5, 0.1}, {0, 1}, {0.9, 0.9},
	}
}

func TestHullUnitSquare(t *testing.T) {
	want := Polygon{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	tests := []struct {
		name string
		alg  HullAlgorithm
	}{
		{"graham", HullGraham},
		{"jarvis", HullJarvis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hull := ConvexHull(unitSquareWithInterior(), tt.alg)
			require.Len(t, hull, 4)
			assert.ElementsMatch(t, want, hull)
			assert.Greater(t, hull.Area(), 0.0, "hull should wind counter-clockwise")
			assert.True(t, hull.Convex())
		})
	}
}

func TestHullAlgorithmsAgree(t *testing.T) {
	points := []Point{
		{-7, 8}, {-4, 6}, {2, 6}, {6, 4}, {8, 6}, {7, -2}, {4, -6}, {8, -7}, {0, 0},
		{3, -2}, {6, -10}, {0, -6}, {-9, -5}, {-8, -2}, {-8, 0}, {-10, 3}, {-2, 2}, {-10, 4},
	}

	graham := GrahamScan(points)
	jarvis := JarvisMarch(points)

	assert.ElementsMatch(t, graham, jarvis)
	assert.Greater(t, graham.Area(), 0.0)
	assert.Greater(t, jarvis.Area(), 0.0)
	for _, p := range points {
		onHull := false
		for _, h := range graham {
			if h == p {
				onHull = true
			}
		}
		if !onHull {
			assert.True(t, graham.Contains(p), "point %v should be inside hull", p)
		}
	}
}

func TestHullCollinear(t *testing.T) {
	points := []Point{{2, 2}, {0, 0}, {3, 3}, {1, 1}, {4, 4}}

	for _, alg := range []HullAlgorithm{HullGraham, HullJarvis} {
		t.Run(alg.String(), func(t *testing.T) {
			hull := ConvexHull(points, alg)
			assert.LessOrEqual(t, len(hull), 2)
			assert.ElementsMatch(t, Polygon{{0, 0}, {4, 4}}, hull)
		})
	}
}

func TestHullSmallInputUnchanged(t *testing.T) {
	points := []Point{{3, 1}, {0, 0}, {1, 5}}

	assert.Equal(t, Polygon(points), GrahamScan(points))
	assert.Equal(t, Polygon(points), JarvisMarch(points))
	assert.Nil(t, GrahamScan(nil))
}

func TestHullDuplicates(t *testing.T) {
	points := []Point{{0, 0}, {0, 0}, {2, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 2}, {1, 1}}

	for _, alg := range []HullAlgorithm{HullGraham, HullJarvis} {
		t.Run(alg.String(), func(t *testing.T) {
			hull := ConvexHull(points, alg)
			assert.ElementsMatch(t, Polygon{{0, 0}, {2, 0}, {2, 2}, {0, 2}}, hull)
		})
	}
}

func TestParseHullAlgorithm(t *testing.T) {
	alg, err := ParseHullAlgorithm("jarvis")
	require.NoError(t, err)
	assert.Equal(t, HullJarvis, alg)

	alg, err = ParseHullAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, HullGraham, alg)

	_, err = ParseHullAlgorithm("quickhull")
	assert.Error(t, err)

	assert.Nil(t, ConvexHull(unitSquareWithInterior(), HullNone))
}

func TestOrientation(t *testing.T) {
	assert.True(t, CounterClockwise(Pt(0, 0), Pt(1, 0), Pt(1, 1)))
	assert.False(t, CounterClockwise(Pt(0, 0), Pt(1, 1), Pt(1, 0)))
	assert.True(t, Collinear(Pt(0, 0), Pt(1, 1), Pt(5, 5)))
}
