package contour

import (
	"contour-tracer/internal/bitmap"
	"contour-tracer/internal/filter"
	"contour-tracer/pkg/geometry"
)

// Unit square corners: c0 (0,0), c1 (1,0), c2 (1,1), c3 (0,1).
var unitCorners = [4]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

// Unit square edges as corner index pairs: e0 c0-c1, e1 c1-c2, e2 c2-c3,
// e3 c3-c0.
var unitEdges = [4][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}

// edgePair is one segment crossing a cell, as two unit edge indices.
type edgePair [2]int

// cellTable maps a cell code to the unit edges its segments cross. Codes 5
// and 10 are saddles; the table separates the two inside corners, yielding
// two segments.
var cellTable = [16][]edgePair{
	0:  nil,
	1:  {{3, 0}},
	2:  {{0, 1}},
	3:  {{3, 1}},
	4:  {{1, 2}},
	5:  {{3, 0}, {1, 2}},
	6:  {{0, 2}},
	7:  {{3, 2}},
	8:  {{2, 3}},
	9:  {{0, 2}},
	10: {{0, 1}, {2, 3}},
	11: {{1, 2}},
	12: {{1, 3}},
	13: {{0, 1}},
	14: {{3, 0}},
	15: nil,
}

// Segment is a contour piece inside one cell. A and B are the grid edges the
// contour crosses.
type Segment struct {
	A, B geometry.Edge
}

// Cell is one marched grid square with a non-trivial code.
type Cell struct {
	Origin   geometry.Point // top-left corner in pixels
	Code     int
	Segments []Segment
}

// Contour is a stitched polygon. Open contours ran into the grid border or a
// missing neighbor before closing.
type Contour struct {
	Points geometry.Polygon `json:"points"`
	Closed bool             `json:"closed"`
}

// Result holds everything one trace produced.
type Result struct {
	Contours []Contour
	Hulls    []geometry.Polygon // one per contour, nil when hulls are off
	Broken   int                // number of open contours
	Binary   *bitmap.Bitmap     // the binarized working copy
	Params   Params
}

// CellCode packs the corner bits as c3<<3 | c2<<2 | c1<<1 | c0.
func CellCode(c0, c1, c2, c3 bool) int {
	code := 0
	for _, c := range [4]bool{c3, c2, c1, c0} {
		code <<= 1
		if c {
			code |= 1
		}
	}
	return code
}

// Trace binarizes b at p.Isovalue, marches the grid and stitches the cell
// segments into contours. b is not modified.
func Trace(b *bitmap.Bitmap, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	bin := b.Clone()
	if err := filter.BinarizeImage(bin, p.Isovalue); err != nil {
		return nil, err
	}
	field := bin
	if !p.BinaryInterpolation {
		field = b.Clone()
		if err := filter.GrayscaleImage(field); err != nil {
			return nil, err
		}
	}

	cells := March(bin, p.Step)
	var segs []Segment
	for _, c := range cells {
		segs = append(segs, c.Segments...)
	}

	crossings := make(map[geometry.Edge]geometry.Point, 2*len(segs))
	for _, s := range segs {
		for _, e := range [2]geometry.Edge{s.A, s.B} {
			if _, ok := crossings[e]; !ok {
				crossings[e] = Interpolate(e, level(field, e.A), level(field, e.B), p.Isovalue)
			}
		}
	}

	res := &Result{Binary: bin, Params: p}
	for _, ch := range stitch(segs, crossings) {
		poly := make(geometry.Polygon, len(ch.edges))
		for i, e := range ch.edges {
			poly[i] = crossings[e]
		}
		res.Contours = append(res.Contours, Contour{Points: poly, Closed: ch.closed})
		if !ch.closed {
			res.Broken++
		}
	}

	if p.Hull != geometry.HullNone {
		res.Hulls = make([]geometry.Polygon, len(res.Contours))
		for i, c := range res.Contours {
			res.Hulls[i] = geometry.ConvexHull(c.Points, p.Hull)
		}
	}
	return res, nil
}

// Bounds returns the box enclosing every contour, and false when there are
// none.
func (r *Result) Bounds() (geometry.Rect, bool) {
	if len(r.Contours) == 0 {
		return geometry.Rect{}, false
	}
	box := r.Contours[0].Points.Bounds()
	for _, c := range r.Contours[1:] {
		box = box.Union(c.Points.Bounds())
	}
	return box, true
}

// level reads the red channel at an integral grid point.
func level(b *bitmap.Bitmap, p geometry.Point) int {
	return int(b.At(int(p.X), int(p.Y), bitmap.Red))
}

// March walks bin in step-sized cells and records the segments of every
// cell whose corners are neither all inside nor all outside. A corner is
// inside when its red channel is non-zero. Cells are returned in row-major
// order of their origin.
func March(bin *bitmap.Bitmap, step int) []Cell {
	if step < 1 {
		return nil
	}
	w, h := bin.Width(), bin.Height()
	var cells []Cell

	for y := 0; y+step < h; y += step {
		for x := 0; x+step < w; x += step {
			origin := geometry.Pt(float64(x), float64(y))
			var world [4]geometry.Point
			var inside [4]bool
			for i, u := range unitCorners {
				world[i] = origin.Add(u.Scale(float64(step)))
				inside[i] = bin.At(int(world[i].X), int(world[i].Y), bitmap.Red) > 0
			}

			code := CellCode(inside[0], inside[1], inside[2], inside[3])
			pairs := cellTable[code]
			if len(pairs) == 0 {
				continue
			}

			cell := Cell{Origin: origin, Code: code}
			for _, pair := range pairs {
				cell.Segments = append(cell.Segments, Segment{
					A: gridEdge(world, pair[0]),
					B: gridEdge(world, pair[1]),
				})
			}
			cells = append(cells, cell)
		}
	}
	return cells
}

func gridEdge(world [4]geometry.Point, unit int) geometry.Edge {
	ends := unitEdges[unit]
	return geometry.NewEdge(world[ends[0]], world[ends[1]])
}

// Interpolate places the iso crossing on e given the field values at its
// endpoints. Equal values yield the midpoint.
func Interpolate(e geometry.Edge, va, vb, iso int) geometry.Point {
	if va == vb {
		return e.Midpoint()
	}
	t := float64(iso-va) / float64(vb-va)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return e.A.Add(e.B.Sub(e.A).Scale(t))
}

// chain is a stitched run of grid edges.
type chain struct {
	edges  []geometry.Edge
	closed bool
}

// stitch joins segments that share a grid edge into chains. Each chain
// starts at the first unused segment, walks forward until it returns to its
// starting edge or runs out of neighbors, then extends backward from its
// start when it did not close. When several unused segments share the edge
// being followed, the one whose far crossing is nearest the last point wins.
func stitch(segs []Segment, crossings map[geometry.Edge]geometry.Point) []chain {
	byEdge := make(map[geometry.Edge][]int, 2*len(segs))
	for i, s := range segs {
		byEdge[s.A] = append(byEdge[s.A], i)
		byEdge[s.B] = append(byEdge[s.B], i)
	}
	used := make([]bool, len(segs))

	// follow finds the nearest unused segment touching cur and returns its
	// other edge.
	follow := func(cur geometry.Edge, from geometry.Point) (geometry.Edge, bool) {
		best, bestDist := -1, 0.0
		var bestEdge geometry.Edge
		for _, j := range byEdge[cur] {
			if used[j] {
				continue
			}
			other := segs[j].A
			if other == cur {
				other = segs[j].B
			}
			d := crossings[other].Distance(from)
			if best < 0 || d < bestDist {
				best, bestDist, bestEdge = j, d, other
			}
		}
		if best < 0 {
			return geometry.Edge{}, false
		}
		used[best] = true
		return bestEdge, true
	}

	var out []chain
	for i, s := range segs {
		if used[i] {
			continue
		}
		used[i] = true

		c := chain{edges: []geometry.Edge{s.A, s.B}}
		cur := s.B
		for {
			next, ok := follow(cur, crossings[cur])
			if !ok {
				break
			}
			if next == s.A {
				c.closed = true
				break
			}
			c.edges = append(c.edges, next)
			cur = next
		}

		if !c.closed {
			var head []geometry.Edge
			cur = s.A
			for {
				next, ok := follow(cur, crossings[cur])
				if !ok {
					break
				}
				head = append(head, next)
				cur = next
			}
			if len(head) > 0 {
				rev := make([]geometry.Edge, 0, len(head)+len(c.edges))
				for k := len(head) - 1; k >= 0; k-- {
					rev = append(rev, head[k])
				}
				c.edges = append(rev, c.edges...)
			}
		}
		out = append(out, c)
	}
	return out
}
