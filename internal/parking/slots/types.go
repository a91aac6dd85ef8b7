package slots

import (
	"math"

	"github.com/banshee-data/parking.report/internal/parking/geometry"
	"github.com/paulmach/orb"
)

// Type aliases re-export the slot layout from geometry, which needs it for
// centre-distance decomposition.

// SlotType is the layout of a parking slot relative to the road.
type SlotType = geometry.SlotType

const (
	Parallel      = geometry.SlotParallel
	Perpendicular = geometry.SlotPerpendicular
	Angled        = geometry.SlotAngled
)

// ParseSlotType normalises an annotation type string.
var ParseSlotType = geometry.ParseSlotType

// MaxScannedSlots is the number of slot channels in a recording.
const MaxScannedSlots = 8

// VerticesPerSlot is the number of corners reported per scanned slot.
const VerticesPerSlot = 4

// Timestamp is a recording timestamp in microseconds.
type Timestamp int64

// GroundTruthSlot is one annotated parking box. Immutable once loaded.
type GroundTruthSlot struct {
	ID      int
	Type    SlotType
	Polygon geometry.Polygon
}

// Center is the polygon centroid.
func (s GroundTruthSlot) Center() orb.Point {
	return s.Polygon.Centroid()
}

// ScannedSlot is one slot reported by the sensing pipeline at a timestamp.
type ScannedSlot struct {
	// Index is the slot channel in the recording, [0, MaxScannedSlots).
	Index        int
	Timestamp    Timestamp
	ScenarioCode ScenarioCode
	Polygon      geometry.Polygon
}

// Detected reports whether the channel carries a detection. All-zero
// coordinates mean "no detection".
func (s ScannedSlot) Detected() bool {
	return len(s.Polygon) > 0 && !s.Polygon.IsZero()
}

// Center is the polygon centroid.
func (s ScannedSlot) Center() orb.Point {
	return s.Polygon.Centroid()
}

// Pose is the ego-vehicle pose in the evaluation frame. Yaw is in radians,
// counter-clockwise from +x.
type Pose struct {
	X   float64
	Y   float64
	Yaw float64
}

// ToWorld maps a vehicle-frame point (x forward, y left) into the
// evaluation frame.
func (p Pose) ToWorld(local orb.Point) orb.Point {
	sin, cos := math.Sincos(p.Yaw)
	return orb.Point{
		p.X + local[0]*cos - local[1]*sin,
		p.Y + local[0]*sin + local[1]*cos,
	}
}
