// Package kin contains small kinematic helpers shared by the generator and the
// analysis routines.
package kin

import (
	"math"
)

const (
	// DeltaPhiMin and DeltaPhiMax bound the range returned by DeltaPhi. The
	// range is half-open: [DeltaPhiMin, DeltaPhiMax).
	DeltaPhiMin = -math.Pi / 2
	DeltaPhiMax = 3 * math.Pi / 2

	twoPi = 2 * math.Pi
)

// Mod returns x modulo m with the sign of m, i.e. the result lies in [0, m)
// for positive m. math.Mod keeps the sign of x, which is not what periodic
// coordinates want.
func Mod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r != 0 && (r < 0) != (m < 0) {
		r += m
	}
	// Adding m to a tiny negative remainder can round up to exactly m.
	if r == m {
		return 0
	}
	return r
}

// DeltaPhi returns the azimuthal separation phi1 - phi2 wrapped into
// [-pi/2, 3pi/2). Keeping the near side (0) and the away side (pi) away from
// the wrap point stops either peak from being split across histogram edges.
func DeltaPhi(phi1, phi2 float64) float64 {
	d := Mod(phi1-phi2+2.5*math.Pi, twoPi) - 0.5*math.Pi
	// Mod returns values in [0, 2pi), but subtracting pi/2 can round a result
	// just below 3pi/2 onto the upper edge.
	if d >= DeltaPhiMax {
		d = DeltaPhiMin
	}
	return d
}

// WrapPhi maps an azimuthal angle into [-pi, pi).
func WrapPhi(phi float64) float64 {
	return Mod(phi+math.Pi, twoPi) - math.Pi
}
