package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats/scalar"
)

// Overlap intersects a ground-truth polygon with a scanned polygon and
// returns the intersection together with the overlap percentage
//
//	max(intersection/gtArea, intersection/scannedArea) × 100
//
// Taking the larger fraction makes the figure symmetric in its arguments.
// Disjoint polygons yield an empty intersection and 0 %.
//
// Clipping is Sutherland–Hodgman against whichever input is convex. When
// both are concave the scanned polygon is triangulated and the ground truth
// is clipped against each triangle. The percentage counts every piece; the
// returned polygon is the largest connected one.
func Overlap(gt, scanned Polygon) (Polygon, float64, error) {
	if err := gt.Validate(); err != nil {
		return nil, 0, newError("overlap: ground truth", err)
	}
	if err := scanned.Validate(); err != nil {
		return nil, 0, newError("overlap: scanned", err)
	}

	parts, err := intersectionParts(gt, scanned)
	if err != nil {
		return nil, 0, newError("overlap", err)
	}
	var interArea float64
	for _, part := range parts {
		interArea += part.Area()
	}
	if interArea <= epsilon {
		return nil, 0, nil
	}

	pct := math.Max(interArea/gt.Area(), interArea/scanned.Area()) * 100
	if pct > 100 || scalar.EqualWithinAbs(pct, 100, 1e-9) {
		pct = 100
	}
	return mergePieces(parts), pct, nil
}

// intersectionParts returns non-overlapping pieces whose union is a ∩ b.
func intersectionParts(a, b Polygon) ([]Polygon, error) {
	switch {
	case b.IsConvex():
		return nonEmpty(Intersection(a, b)), nil
	case a.IsConvex():
		return nonEmpty(Intersection(b, a)), nil
	}
	tris, err := triangulate(b)
	if err != nil {
		return nil, err
	}
	var parts []Polygon
	for _, tri := range tris {
		parts = append(parts, nonEmpty(Intersection(a, tri))...)
	}
	return parts, nil
}

func nonEmpty(p Polygon) []Polygon {
	if p.Empty() {
		return nil
	}
	return []Polygon{p}
}

// Intersection clips subject against a convex clipper. The result is empty
// when they do not overlap. Callers must ensure clipper is convex.
func Intersection(subject, clipper Polygon) Polygon {
	clip := clipper.counterClockwise()
	out := dedupe(subject.Points())
	if len(clip) < 3 || len(out) < 3 {
		return nil
	}

	for i := range clip {
		a, b := clip[i], clip[(i+1)%len(clip)]
		in := out
		out = make([]orb.Point, 0, len(in)+2)
		if len(in) == 0 {
			break
		}
		prev := in[len(in)-1]
		prevInside := cross(a, b, prev) >= -epsilon
		for _, cur := range in {
			curInside := cross(a, b, cur) >= -epsilon
			switch {
			case curInside && !prevInside:
				out = append(out, edgeIntersection(a, b, prev, cur))
				out = append(out, cur)
			case curInside:
				out = append(out, cur)
			case prevInside:
				out = append(out, edgeIntersection(a, b, prev, cur))
			}
			prev, prevInside = cur, curInside
		}
	}

	out = dedupe(out)
	if len(out) < 3 {
		return nil
	}
	return Polygon(out)
}

// edgeIntersection returns where segment p→q meets the infinite line a→b.
func edgeIntersection(a, b, p, q orb.Point) orb.Point {
	cp := cross(a, b, p)
	cq := cross(a, b, q)
	denom := cp - cq
	if math.Abs(denom) <= epsilon {
		return q
	}
	t := cp / denom
	return orb.Point{p[0] + t*(q[0]-p[0]), p[1] + t*(q[1]-p[1])}
}
