// Package pdg decodes the packed particle identity codes used by event
// generators (the PDG Monte Carlo numbering scheme).
//
// A hadron code has the form +-nq1q2q3J: J is the spin multiplicity and q1,
// q2, q3 are the flavors of the constituent quarks. Mesons leave q1 at zero.
// The sign distinguishes particles from antiparticles.
package pdg

// Codes used by the generator and as default selections.
const (
	PiPlus  = 211
	Pi0     = 111
	KPlus   = 321
	KShort  = 310
	KLong   = 130
	K0      = 311
	Phi     = 333
	Proton  = 2212
	Neutron = 2112
	Lambda  = 3122
	SigmaP  = 3222
	Sigma0  = 3212
	SigmaM  = 3112
	Xi0     = 3322
	Xi      = 3312
	Omega   = 3334

	strange = 3
)

// Abs returns the absolute value of a code.
func Abs(code int) int {
	if code < 0 {
		return -code
	}
	return code
}

// IsStrange returns true if the code belongs to a hadron with at least one
// (anti)strange constituent quark. Hidden strangeness counts, so the phi
// meson is strange.
func IsStrange(code int) bool {
	n := Abs(code) / 10 // drop J
	for i := 0; i < 3; i++ {
		if n%10 == strange {
			return true
		}
		n /= 10
	}
	return false
}

// QuarkDigits returns the three flavor digits (q1, q2, q3) of a code.
func QuarkDigits(code int) (q1, q2, q3 int) {
	n := Abs(code) / 10
	q3 = n % 10
	n /= 10
	q2 = n % 10
	n /= 10
	q1 = n % 10
	return q1, q2, q3
}

// Sign returns +1 for particles, -1 for antiparticles and 0 for code 0.
func Sign(code int) int {
	switch {
	case code > 0:
		return +1
	case code < 0:
		return -1
	}
	return 0
}
