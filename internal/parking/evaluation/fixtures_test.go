package evaluation

import (
	"math"

	"github.com/banshee-data/parking.report/internal/parking/annotation"
	"github.com/banshee-data/parking.report/internal/parking/recording"
	"github.com/banshee-data/parking.report/internal/parking/slots"
	"github.com/banshee-data/parking.report/internal/testutil"
)

// The synthetic drive: the ego runs north along x = 0 from y = 0 to
// y = 25 in 0.1 m steps, 10 ms apart, past three perpendicular bays on
// its right.
//
//	gt 1  x 2..7, y 10..12.5   scanned exactly by channel 0 (TP),
//	                           and by channel 2 shifted 0.3 m (dropped)
//	gt 2  x 2..7, y 13..15.5   scanned 3 m too far out by channel 1 (FP)
//	gt 3  x 2..7, y 20..22.5   never scanned
//
// With the right mirror 2 m ahead of the pose, bay edges at y = 10, 13
// and 20 become collinear at frames 80, 110 and 180.
const (
	frameStep = 10000 // µs
	tsGT1     = 80 * frameStep
	tsGT2     = 110 * frameStep
	tsGT3     = 180 * frameStep
)

func groundTruthPhase() *annotation.Phase {
	return &annotation.Phase{
		Name: "ApplicationStarted",
		Snapshots: []annotation.Snapshot{{
			Timestamp: 0,
			Slots: []slots.GroundTruthSlot{
				testutil.GroundTruth(1, slots.Perpendicular, testutil.PerpendicularBay(2, 10)),
				testutil.GroundTruth(2, slots.Perpendicular, testutil.PerpendicularBay(2, 13)),
				testutil.GroundTruth(3, slots.Perpendicular, testutil.PerpendicularBay(2, 20)),
			},
		}},
	}
}

func scannedAt(ts slots.Timestamp) []slots.ScannedSlot {
	return []slots.ScannedSlot{
		testutil.Scanned(0, ts, slots.ScenarioPerpendicular, testutil.PerpendicularBay(2, 10)),
		testutil.Scanned(1, ts, slots.ScenarioPerpendicular, testutil.PerpendicularBay(5, 13)),
		testutil.Scanned(2, ts, slots.ScenarioPerpendicular, testutil.PerpendicularBay(2.3, 10)),
	}
}

func syntheticDrive() *recording.Recording {
	rec := &recording.Recording{Name: "synthetic"}
	for i := 0; i <= 250; i++ {
		ts := slots.Timestamp(i * frameStep)
		rec.Frames = append(rec.Frames, recording.Frame{
			Timestamp: ts,
			Pose:      slots.Pose{X: 0, Y: float64(i) * 0.1, Yaw: math.Pi / 2},
			Slots:     scannedAt(ts),
		})
	}
	return rec
}

const annotationJSON = `{
  "ApplicationStarted": [
    {"timestamp": 0, "parkingBoxes": [
      {"objectId": 1, "type": "perpendicular", "slotCoordinates": [[2,10],[7,10],[7,12.5],[2,12.5]]},
      {"objectId": 2, "type": "perpendicular", "slotCoordinates": [[2,13],[7,13],[7,15.5],[2,15.5]]},
      {"objectId": 3, "type": "perpendicular", "slotCoordinates": [[2,20],[7,20],[7,22.5],[2,22.5]]}
    ]}
  ]
}`
