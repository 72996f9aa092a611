// Package units provides unit conversions shared by the physics and
// terrain packages. All functions are pure and total.
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

// SlopePctToDegrees converts a slope gradient in percent to degrees.
// A 100% slope is a 45° incline.
func SlopePctToDegrees(pct float64) float64 {
	return RadToDeg(math.Atan(pct / 100))
}

// KmhToMs converts km/h to m/s.
func KmhToMs(kmh float64) float64 {
	return kmh / 3.6
}

// Round2 rounds to two decimals. Intermediate arithmetic stays in full
// precision; only externally visible HP figures and scores pass through here.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
