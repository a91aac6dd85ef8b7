package geometry

import (
	"fmt"
	"math"

	"github.com/banshee-data/parking.report/internal/units"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r2"
)

// CenterDistances decomposes the separation between the ground-truth and
// scanned centres into slot-local axes.
//
// The separation vector is rotated back by the deviation of
// orientationDeg from the nearest multiple of 90°, so that the local x
// axis is lateral and the local y axis longitudinal. For parallel slots
// the long-side distance is the lateral component and the short-side
// distance the longitudinal one; perpendicular and angled slots swap them.
func CenterDistances(gtCenter, scannedCenter orb.Point, t SlotType, orientationDeg float64) (shortDist, longDist float64, err error) {
	dev := units.DeviationFromRightAngle(orientationDeg)
	sep := r2.Sub(vec(scannedCenter), vec(gtCenter))
	local := r2.Rotate(sep, -units.DegToRad(dev), r2.Vec{})
	lateral, longitudinal := math.Abs(local.X), math.Abs(local.Y)

	switch t {
	case SlotParallel:
		return longitudinal, lateral, nil
	case SlotPerpendicular, SlotAngled:
		return lateral, longitudinal, nil
	default:
		return 0, 0, newError("center distances", fmt.Errorf("%w: %q", ErrUnknownSlotType, string(t)))
	}
}
