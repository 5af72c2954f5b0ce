// Package simrand centralizes the pseudo-random source used across the
// simulator so tests can pin a seed instead of relying on package-level
// global state.
package simrand

import "math/rand"

// Source is the PRNG contract consumed by Workload, Container, and Node.
// It is satisfied by *rand.Rand; tests may substitute a fake for
// deterministic edge-case coverage.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// New wraps a seeded math/rand source for injection into engine, workload,
// container, and node constructors.
func New(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// UniformFloat returns a sample uniformly distributed in [lo, hi]. If
// hi < lo the arguments are swapped so callers never need to pre-sort.
func UniformFloat(src Source, lo, hi float64) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi == lo {
		return lo
	}
	return lo + src.Float64()*(hi-lo)
}

// UniformInt returns a sample uniformly distributed in [lo, hi], inclusive.
func UniformInt(src Source, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi == lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}
