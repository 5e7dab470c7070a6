package core

import "math/rand"

// Sampler provides uniform random numbers for the simulation.
// Can be swapped out for deterministic testing.
type Sampler interface {
	Get1D() float64
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewDetectorSampler creates the random stream owned by the worker that
// simulates one detector. The stream depends only on the seed and the
// detector index, so results do not depend on scheduling.
func NewDetectorSampler(seed int64, detectorIndex int) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed + int64(detectorIndex))))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// SequenceSampler replays a fixed list of values, cycling when exhausted
type SequenceSampler struct {
	Values []float64
	next   int
}

// Get1D returns the next value of the sequence
func (s *SequenceSampler) Get1D() float64 {
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}
