// Package testutil builds slot polygons and fixtures shared by the parking
// package tests.
package testutil

import (
	"math"

	"github.com/banshee-data/parking.report/internal/parking/geometry"
	"github.com/banshee-data/parking.report/internal/parking/slots"
	"github.com/paulmach/orb"
)

// Rect returns an axis-aligned w×h rectangle with its lower-left corner at
// (x, y), wound counter-clockwise.
func Rect(x, y, w, h float64) geometry.Polygon {
	return geometry.NewPolygon(
		[2]float64{x, y},
		[2]float64{x + w, y},
		[2]float64{x + w, y + h},
		[2]float64{x, y + h},
	)
}

// Translate shifts every point of p by (dx, dy).
func Translate(p geometry.Polygon, dx, dy float64) geometry.Polygon {
	out := make(geometry.Polygon, len(p))
	for i, pt := range p {
		out[i] = orb.Point{pt[0] + dx, pt[1] + dy}
	}
	return out
}

// Rotate turns p by deg degrees counter-clockwise around c.
func Rotate(p geometry.Polygon, deg float64, c orb.Point) geometry.Polygon {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	out := make(geometry.Polygon, len(p))
	for i, pt := range p {
		dx, dy := pt[0]-c[0], pt[1]-c[1]
		out[i] = orb.Point{c[0] + dx*cos - dy*sin, c[1] + dx*sin + dy*cos}
	}
	return out
}

// GroundTruth builds an annotated slot.
func GroundTruth(id int, t slots.SlotType, p geometry.Polygon) slots.GroundTruthSlot {
	return slots.GroundTruthSlot{ID: id, Type: t, Polygon: p}
}

// Scanned builds a detected slot on channel index.
func Scanned(index int, ts slots.Timestamp, code slots.ScenarioCode, p geometry.Polygon) slots.ScannedSlot {
	return slots.ScannedSlot{Index: index, Timestamp: ts, ScenarioCode: code, Polygon: p}
}

// PerpendicularBay is a 2.5 m × 5.0 m perpendicular slot with its
// lower-left corner at (x, y), the depth running along +x.
func PerpendicularBay(x, y float64) geometry.Polygon {
	return Rect(x, y, 5.0, 2.5)
}
