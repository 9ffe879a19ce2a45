package analysis

import (
	"github.com/phil-mansfield/ssbar/event"
	"github.com/phil-mansfield/ssbar/pdg"
)

// Selector decides whether a particle takes part in an analysis.
type Selector func(p event.Particle) bool

// Species selects particles whose |ID| is one of codes. The sign of each
// code is ignored, so Species(3312) selects both Xi- and its antiparticle.
func Species(codes ...int) Selector {
	set := make(map[int]bool, len(codes))
	for _, c := range codes {
		set[pdg.Abs(c)] = true
	}
	return func(p event.Particle) bool { return set[pdg.Abs(p.ID)] }
}

// PTRange selects particles with min <= PT < max. A max of zero means no
// upper limit.
func PTRange(min, max float64) Selector {
	return func(p event.Particle) bool {
		return p.PT >= min && (max == 0 || p.PT < max)
	}
}

// Strange selects hadrons containing a strange quark.
func Strange() Selector {
	return func(p event.Particle) bool { return pdg.IsStrange(p.ID) }
}

// All selects every particle.
func All() Selector {
	return func(event.Particle) bool { return true }
}

// And selects particles accepted by every one of sels.
func And(sels ...Selector) Selector {
	return func(p event.Particle) bool {
		for _, sel := range sels {
			if !sel(p) {
				return false
			}
		}
		return true
	}
}
