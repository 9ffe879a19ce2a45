package pdg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsStrange(t *testing.T) {
	table := []struct {
		code int
		want bool
	}{
		{0, false},
		{1, false},
		{3, false},
		{30, true},
		{PiPlus, false},
		{Pi0, false},
		{KPlus, true},
		{KShort, true},
		{KLong, true},
		{Phi, true},
		{Proton, false},
		{Neutron, false},
		{Lambda, true},
		{SigmaM, true},
		{Xi, true},
		{Xi0, true},
		{Omega, true},
		{421, false},   // D0
		{431, true},    // Ds
		{30443, false}, // the leading 3 is an excitation digit
	}

	for i, test := range table {
		assert.Equal(t, test.want, IsStrange(test.code), "%d) code %d", i, test.code)
		assert.Equal(t, test.want, IsStrange(-test.code), "%d) code %d", i, -test.code)
	}
}

func TestIsStrangeSignInvariant(t *testing.T) {
	for code := -6000; code <= 6000; code++ {
		if IsStrange(code) != IsStrange(-code) {
			t.Fatalf("IsStrange(%d) != IsStrange(%d)", code, -code)
		}
	}
}

func TestQuarkDigits(t *testing.T) {
	q1, q2, q3 := QuarkDigits(-Omega)
	assert.Equal(t, []int{3, 3, 3}, []int{q1, q2, q3})

	q1, q2, q3 = QuarkDigits(KPlus)
	assert.Equal(t, []int{0, 3, 2}, []int{q1, q2, q3})
}

func TestSign(t *testing.T) {
	assert.Equal(t, 1, Sign(Xi))
	assert.Equal(t, -1, Sign(-Xi))
	assert.Equal(t, 0, Sign(0))
}
