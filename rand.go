package divik

import "math/rand"

// Randomness is never drawn from the global generator. Every randomized step
// (restart initialization, bootstrap resampling, sibling recursion) receives
// its own *rand.Rand built from a seed derived deterministically from the
// configured seed, so results are reproducible and independent of the worker
// count.

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// deriveSeed produces an independent child seed for the given stream number
// using a splitmix64 step. Distinct streams give uncorrelated generators.
func deriveSeed(seed int64, stream uint64) int64 {
	z := uint64(seed) + (stream+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
