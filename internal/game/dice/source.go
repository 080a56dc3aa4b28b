// Package dice provides the randomness abstraction used by the combat
// simulator.
package dice

import (
	"math/rand/v2"
)

// Source is the randomness provider for attack, damage and effect rolls.
//
// Implementations are NOT required to be safe for concurrent use; each
// simulation worker owns its own Source.
type Source interface {
	// IntN returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	IntN(n int) int
	// Float64 returns a random float in [0.0, 1.0).
	Float64() float64
}

// NewSource returns a PCG-backed Source seeded from seed and stream.
// Two sources built from the same pair produce identical sequences.
//
// Postcondition: Every value returned by IntN is in [0, n).
func NewSource(seed, stream uint64) Source {
	return rand.New(rand.NewPCG(seed, stream))
}

// Between returns a uniformly distributed int in [lo, hi].
//
// Precondition: lo <= hi.
// Postcondition: lo <= result <= hi.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Chance reports whether a roll succeeds with probability p.
// Values of p outside [0, 1] are treated as certain failure or success.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}
