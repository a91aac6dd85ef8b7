package geometry

import (
	"fmt"
	"math"

	"github.com/banshee-data/parking.report/internal/units"
	"github.com/paulmach/orb"
)

// DefaultHorizontalToleranceDeg is how far from the x axis a point pair may
// lean and still count as a horizontal edge.
const DefaultHorizontalToleranceDeg = 10.0

// HorizontalEdge scans every point pair of p and returns the pair closest
// to horizontal, ordered so that the first point has the smaller x.
// Only pairs within tolDeg of the x axis qualify; ties go to the pair seen
// first. Fewer than two qualifying points yields ErrNoHorizontalEdge.
//
// No polygon validation is done here so that the collinearity trigger can
// use partially degenerate detections.
func HorizontalEdge(p Polygon, tolDeg float64) (orb.Point, orb.Point, error) {
	if tolDeg <= 0 {
		tolDeg = DefaultHorizontalToleranceDeg
	}
	pts := p.Points()

	best := math.Inf(1)
	var bi, bj int
	found := false
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			dx := pts[j][0] - pts[i][0]
			dy := pts[j][1] - pts[i][1]
			if math.Hypot(dx, dy) <= epsilon {
				continue
			}
			lean := units.RadToDeg(math.Atan2(math.Abs(dy), math.Abs(dx)))
			if lean > tolDeg || lean >= best {
				continue
			}
			best, bi, bj, found = lean, i, j, true
		}
	}
	if !found {
		return orb.Point{}, orb.Point{}, fmt.Errorf("%w within %.1f° (%d points)", ErrNoHorizontalEdge, tolDeg, len(pts))
	}

	a, b := pts[bi], pts[bj]
	if b[0] < a[0] {
		a, b = b, a
	}
	return a, b, nil
}

// Orientation returns the signed angle in degrees, in (-90, 90], of the
// polygon's most nearly horizontal edge measured from the +x axis.
// Degenerate polygons and polygons without a horizontal edge fail with a
// GeometryError.
func Orientation(p Polygon, tolDeg float64) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, newError("orientation", err)
	}
	a, b, err := HorizontalEdge(p, tolDeg)
	if err != nil {
		return 0, newError("orientation", err)
	}
	return edgeAngle(a, b), nil
}

// OrientationDifference is |Orientation(gt) − Orientation(scanned)|.
func OrientationDifference(gt, scanned Polygon, tolDeg float64) (float64, error) {
	g, err := Orientation(gt, tolDeg)
	if err != nil {
		return 0, err
	}
	s, err := Orientation(scanned, tolDeg)
	if err != nil {
		return 0, err
	}
	return math.Abs(g - s), nil
}

func edgeAngle(a, b orb.Point) float64 {
	deg := units.RadToDeg(math.Atan2(b[1]-a[1], b[0]-a[0]))
	if deg <= -90 {
		deg += 180
	}
	return deg
}
