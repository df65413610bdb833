// Package rng provides the deterministic, platform-independent random
// source shared by the step driver (queue shuffling) and agents (spec
// §4.1, §9 "RNG determinism across platforms").
//
// The generator is math/rand/v2's PCG: its algorithm is specified by
// the Go project itself and produces the same stream for the same
// seed on every platform, unlike a bare math/rand.Source (any
// algorithm permitted) or an OS-entropy-backed generator.
package rng

import "math/rand/v2"

// Source is a seeded, reproducible generator with the two operations
// the spec requires: a uniform shuffle and a bounded integer draw.
type Source struct {
	r    *rand.Rand
	seed uint64
}

// New creates a Source seeded deterministically from seed.
func New(seed uint64) *Source {
	return &Source{
		r:    rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		seed: seed,
	}
}

// Shuffle produces a uniform permutation of the first n elements,
// swapping with swap(i, j), matching rand.Shuffle's contract.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.r.Shuffle(n, swap)
}

// IntRange returns a value in [lo, hi).
func (s *Source) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.IntN(hi-lo)
}

// Float64 returns a value in [0, 1), used by agents for probabilistic
// decisions (side selection, order arrival rates).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Derive produces an independently seeded sub-source for a given tag,
// implementing the "one sub-seed per agent per step" requirement of
// §4.1 and §4.5. Derivation is a pure function of (seed, tag), so it
// is reproducible across runs without consuming the parent's stream.
func (s *Source) Derive(tag uint64) *Source {
	mixed := mix(s.seed, tag)
	return New(mixed)
}

// mix combines two uint64s into a new seed with a fixed-point
// finalizer (splitmix64-style), keeping sub-seed derivation stable
// across platforms.
func mix(a, b uint64) uint64 {
	z := a + 0x9E3779B97F4A7C15 + b*0xBF58476D1CE4E5B9
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
