package core

// SeedPolicy maps a (repeat, fold) pair to the seed used for that fold's
// training call. Policies must be injective over the pairs they will see so
// that no two folds share a pseudo-random stream, and deterministic so that
// re-running an evaluation reproduces it bit for bit.
type SeedPolicy func(repeat, fold int) int64

// DefaultSeedPolicy spreads repeats 10000 apart, which is injective for
// datasets under 10000 samples.
func DefaultSeedPolicy(repeat, fold int) int64 {
	return int64(10000*repeat + fold)
}
