// Package units holds angle conversions. Recordings carry yaw in radians;
// thresholds and reports use degrees.
package units

import "math"

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// DeviationFromRightAngle returns how far deg is from the nearest multiple
// of 90°, in [-45, 45].
func DeviationFromRightAngle(deg float64) float64 {
	return deg - 90*math.Round(deg/90)
}
