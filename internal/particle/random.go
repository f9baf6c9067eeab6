package particle

import (
	"math/rand"

	"golang.org/x/exp/constraints"
)

// Rand is the random source used for every spawn-time sample.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a seeded random source.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// RandomInRange returns a random float64 in the range [min, max].
func RandomInRange(r Rand, min, max float64) float64 {
	if min >= max {
		return min
	}
	return min + r.Float64()*(max-min)
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
