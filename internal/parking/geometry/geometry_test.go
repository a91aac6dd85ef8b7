package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// rect returns an axis-aligned rectangle with its lower-left corner at
// (x, y), wound counter-clockwise.
func rect(x, y, w, h float64) Polygon {
	return NewPolygon([2]float64{x, y}, [2]float64{x + w, y}, [2]float64{x + w, y + h}, [2]float64{x, y + h})
}

// rotated rotates p by deg around c.
func rotated(p Polygon, deg float64, c orb.Point) Polygon {
	th := deg * math.Pi / 180
	out := make(Polygon, len(p))
	for i, pt := range p {
		dx, dy := pt[0]-c[0], pt[1]-c[1]
		out[i] = orb.Point{
			c[0] + dx*math.Cos(th) - dy*math.Sin(th),
			c[1] + dx*math.Sin(th) + dy*math.Cos(th),
		}
	}
	return out
}

func translated(p Polygon, dx, dy float64) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = orb.Point{pt[0] + dx, pt[1] + dy}
	}
	return out
}

func lShape() Polygon {
	return NewPolygon(
		[2]float64{0, 0}, [2]float64{2, 0}, [2]float64{2, 1},
		[2]float64{1, 1}, [2]float64{1, 2}, [2]float64{0, 2},
	)
}

// dart is an arrowhead with its reflex vertex at (1, 1).
func dart() Polygon {
	return NewPolygon([2]float64{0, 0}, [2]float64{2, 1}, [2]float64{0, 2}, [2]float64{1, 1})
}
