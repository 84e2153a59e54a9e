package cache

import (
	"math/rand/v2"
)

// Random evicts a uniformly chosen way. Each policy owns its generator so
// that caches with the same seed evict the same ways.
type Random struct {
	numWays int
	seed    int64
	rng     *rand.Rand
}

// NewRandom creates a Random policy seeded with seed.
func NewRandom(numWays int, seed int64) *Random {
	return &Random{
		numWays: numWays,
		seed:    seed,
		rng:     rand.New(rand.NewPCG(uint64(seed), 0)),
	}
}

// Seed returns the seed of the generator.
func (p *Random) Seed() int64 {
	return p.seed
}

// Access does nothing.
func (p *Random) Access(*Block) {}

// SelectVictim returns a way in [0, numWays).
func (p *Random) SelectVictim(_ uint64, setID int) (set, way int) {
	return setID, p.rng.IntN(p.numWays)
}
