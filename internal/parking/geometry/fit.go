package geometry

import (
	"math"

	"github.com/banshee-data/parking.report/internal/units"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultFitStepDeg is the rotation increment of the rectangle-fit search.
const DefaultFitStepDeg = 1.0

// RectangleFits reports whether a width×length rectangle centred on the
// centroid of p fits entirely inside p at some rotation in [0°, 180°),
// trying angles 0, stepDeg, 2·stepDeg, … and stopping at the first fit.
//
// This is an approximation: a fit that only exists between two sampled
// angles is missed, so a false result means "no fit found at this step
// size", not "cannot fit". Empty or invalid polygons never fit.
func RectangleFits(p Polygon, width, length, stepDeg float64) bool {
	_, ok := FitAngle(p, width, length, stepDeg)
	return ok
}

// FitAngle is RectangleFits returning the first angle, in degrees, at which
// the rectangle's length axis fits.
func FitAngle(p Polygon, width, length, stepDeg float64) (float64, bool) {
	if width <= 0 || length <= 0 || p.Empty() || p.Validate() != nil {
		return 0, false
	}
	if stepDeg <= 0 {
		stepDeg = DefaultFitStepDeg
	}

	ring := p.Ring()
	center := vec(p.Centroid())
	b := p.Bound()
	// Quick reject: the rectangle's shorter side must fit the polygon's
	// larger extent at any angle.
	if math.Min(width, length) > math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])+epsilon {
		return 0, false
	}

	for i := 0; ; i++ {
		deg := float64(i) * stepDeg
		if deg >= 180 {
			break
		}
		corners := rectangleCorners(center, width, length, units.DegToRad(deg))
		if containsRectangle(ring, corners) {
			return deg, true
		}
	}
	return 0, false
}

// rectangleCorners returns the corners of a rectangle centred on c whose
// length axis points along theta.
func rectangleCorners(c r2.Vec, width, length, theta float64) [4]orb.Point {
	along := r2.Scale(length/2, r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)})
	across := r2.Scale(width/2, r2.Vec{X: -math.Sin(theta), Y: math.Cos(theta)})
	return [4]orb.Point{
		point(r2.Add(r2.Add(c, along), across)),
		point(r2.Sub(r2.Add(c, along), across)),
		point(r2.Sub(r2.Sub(c, along), across)),
		point(r2.Add(r2.Sub(c, along), across)),
	}
}

// containsRectangle requires every corner inside-or-on the ring and no
// ring edge properly crossing a rectangle edge, which also covers
// non-convex rings.
func containsRectangle(ring orb.Ring, corners [4]orb.Point) bool {
	for _, c := range corners {
		if !planar.RingContains(ring, c) {
			return false
		}
	}
	for i := range corners {
		c1, c2 := corners[i], corners[(i+1)%4]
		for j := 0; j+1 < len(ring); j++ {
			if segmentsCross(c1, c2, ring[j], ring[j+1]) {
				return false
			}
		}
	}
	return true
}
