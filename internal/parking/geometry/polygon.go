package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r2"
)

// epsilon is the coordinate/area tolerance below which values are treated
// as zero. Slot coordinates are metres, so this is far below sensor noise.
const epsilon = 1e-9

// Polygon is an ordered list of slot corners. Insertion order is winding
// order and the ring is implicitly closed; a trailing copy of the first
// point is tolerated but never required.
type Polygon orb.Ring

// NewPolygon builds a polygon from flat (x, y) pairs.
func NewPolygon(xy ...[2]float64) Polygon {
	p := make(Polygon, len(xy))
	for i, v := range xy {
		p[i] = orb.Point{v[0], v[1]}
	}
	return p
}

// Points returns the polygon without a closing duplicate point.
func (p Polygon) Points() []orb.Point {
	n := len(p)
	if n > 1 && p[0] == p[n-1] {
		n--
	}
	out := make([]orb.Point, n)
	copy(out, p[:n])
	return out
}

// Ring returns an explicitly closed copy suitable for orb/planar.
func (p Polygon) Ring() orb.Ring {
	pts := p.Points()
	if len(pts) == 0 {
		return nil
	}
	r := make(orb.Ring, 0, len(pts)+1)
	r = append(r, pts...)
	return append(r, pts[0])
}

// IsZero reports whether every coordinate is zero. Recordings use an
// all-zero slot to mean "no detection".
func (p Polygon) IsZero() bool {
	for _, pt := range p {
		if pt[0] != 0 || pt[1] != 0 {
			return false
		}
	}
	return true
}

// Empty reports whether the polygon has no usable area (fewer than three
// points). Intersections of disjoint polygons are empty.
func (p Polygon) Empty() bool {
	return len(p.Points()) < 3
}

// Area is the absolute enclosed area. Empty polygons have zero area.
// planar.Area is signed for rings, negative when clockwise.
func (p Polygon) Area() float64 {
	if p.Empty() {
		return 0
	}
	return math.Abs(planar.Area(p.Ring()))
}

// Centroid returns the area-weighted centroid, falling back to the vertex
// mean when the area vanishes.
func (p Polygon) Centroid() orb.Point {
	pts := p.Points()
	if len(pts) == 0 {
		return orb.Point{}
	}
	if len(pts) >= 3 {
		c, area := planar.CentroidArea(p.Ring())
		if math.Abs(area) > epsilon {
			return c
		}
	}
	var sx, sy float64
	for _, pt := range pts {
		sx += pt[0]
		sy += pt[1]
	}
	n := float64(len(pts))
	return orb.Point{sx / n, sy / n}
}

// Bound is the axis-aligned bounding box.
func (p Polygon) Bound() orb.Bound {
	return p.Ring().Bound()
}

// Validate checks the polygon is usable for area-based scoring: finite
// coordinates, at least three distinct points, non-zero area, and no
// self-intersection.
func (p Polygon) Validate() error {
	for i, pt := range p {
		if !finite(pt[0]) || !finite(pt[1]) {
			return fmt.Errorf("%w: non-finite vertex %d %v", ErrDegeneratePolygon, i, pt)
		}
	}
	pts := dedupe(p.Points())
	if len(pts) < 3 {
		return fmt.Errorf("%w: %d distinct points", ErrDegeneratePolygon, len(pts))
	}
	if Polygon(pts).Area() <= epsilon {
		return fmt.Errorf("%w: zero area", ErrDegeneratePolygon)
	}
	n := len(pts)
	for i := 0; i < n; i++ {
		a1, a2 := pts[i], pts[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing edge
			}
			b1, b2 := pts[j], pts[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return fmt.Errorf("%w: edges %d and %d", ErrSelfIntersecting, i, j)
			}
		}
	}
	return nil
}

// IsConvex reports whether all turns have the same sense. Collinear
// vertices are ignored.
func (p Polygon) IsConvex() bool {
	pts := dedupe(p.Points())
	n := len(pts)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		c := cross(pts[i], pts[(i+1)%n], pts[(i+2)%n])
		if math.Abs(c) <= epsilon {
			continue
		}
		s := 1
		if c < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return sign != 0
}

// counterClockwise returns the points in counter-clockwise order.
func (p Polygon) counterClockwise() []orb.Point {
	pts := dedupe(p.Points())
	if len(pts) >= 3 && p.Ring().Orientation() == orb.CW {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

// dedupe drops consecutive repeated points, including a repeat across the
// closing edge.
func dedupe(pts []orb.Point) []orb.Point {
	out := make([]orb.Point, 0, len(pts))
	for _, pt := range pts {
		if len(out) > 0 && samePoint(out[len(out)-1], pt) {
			continue
		}
		out = append(out, pt)
	}
	for len(out) > 1 && samePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func samePoint(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) <= epsilon && math.Abs(a[1]-b[1]) <= epsilon
}

func vec(p orb.Point) r2.Vec {
	return r2.Vec{X: p[0], Y: p[1]}
}

func point(v r2.Vec) orb.Point {
	return orb.Point{v.X, v.Y}
}

// cross is the z component of (b-a)×(c-a); positive when a→b→c turns left.
func cross(a, b, c orb.Point) float64 {
	return r2.Cross(r2.Sub(vec(b), vec(a)), r2.Sub(vec(c), vec(a)))
}

// onSegment reports whether c, known to be collinear with a-b, lies within
// the segment's bounding box.
func onSegment(a, b, c orb.Point) bool {
	return math.Min(a[0], b[0])-epsilon <= c[0] && c[0] <= math.Max(a[0], b[0])+epsilon &&
		math.Min(a[1], b[1])-epsilon <= c[1] && c[1] <= math.Max(a[1], b[1])+epsilon
}

// segmentsIntersect reports whether closed segments a1-a2 and b1-b2 share
// at least one point.
func segmentsIntersect(a1, a2, b1, b2 orb.Point) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)

	if ((d1 > epsilon && d2 < -epsilon) || (d1 < -epsilon && d2 > epsilon)) &&
		((d3 > epsilon && d4 < -epsilon) || (d3 < -epsilon && d4 > epsilon)) {
		return true
	}

	switch {
	case math.Abs(d1) <= epsilon && onSegment(b1, b2, a1):
		return true
	case math.Abs(d2) <= epsilon && onSegment(b1, b2, a2):
		return true
	case math.Abs(d3) <= epsilon && onSegment(a1, a2, b1):
		return true
	case math.Abs(d4) <= epsilon && onSegment(a1, a2, b2):
		return true
	}
	return false
}

// segmentsCross reports a proper crossing: the segments intersect at a
// single point interior to both. Touching endpoints does not count.
func segmentsCross(a1, a2, b1, b2 orb.Point) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)
	return ((d1 > epsilon && d2 < -epsilon) || (d1 < -epsilon && d2 > epsilon)) &&
		((d3 > epsilon && d4 < -epsilon) || (d3 < -epsilon && d4 > epsilon))
}
