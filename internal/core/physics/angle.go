package physics

import "math"

// Tau is a full turn in radians.
const Tau = 2 * math.Pi

// NormalizeRadians wraps an angle into [0, 2π).
func NormalizeRadians(angle float64) float64 {
	a := math.Mod(angle, Tau)
	if a < 0 {
		a += Tau
	}
	// math.Mod of a tiny negative value plus Tau can round up to Tau.
	if a >= Tau {
		a -= Tau
	}
	return a
}

// AngleTo returns the angle of the line from -> to against the x axis, in [0, 2π).
func AngleTo(from, to Vector2) float64 {
	return to.Sub(from).Angle()
}
