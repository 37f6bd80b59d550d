package gamemodule

import "math/rand"

// Rand is a seedable source handed to ApplyAction for modules whose
// rules consume randomness (e.g. drawing a card, rolling dice). It
// wraps math/rand with a fixed seed so two replays of the same
// transcript produce the same sequence of draws.
type Rand struct {
	src *rand.Rand
}

// NewRand builds a Rand deterministically derived from seed.
func NewRand(seed int64) *Rand {
	return &Rand{src: rand.New(rand.NewSource(seed))}
}

// Intn returns a non-negative random number in [0,n).
func (r *Rand) Intn(n int) int {
	return r.src.Intn(n)
}

// Shuffle pseudo-randomly permutes n elements via swap.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.src.Shuffle(n, swap)
}
