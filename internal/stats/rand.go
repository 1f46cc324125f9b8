package stats

import "math/rand/v2"

// NewSource returns a deterministic random source for the given seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// RandomSource returns a randomly seeded source.
func RandomSource() rand.Source {
	return rand.NewPCG(rand.Uint64(), rand.Uint64())
}
