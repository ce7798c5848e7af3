package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Float32 returns a pseudo-random number in [0,1).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Vector generates a random vector with components in [-1,1).
func (r *RNG) Vector(dim int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := make([]float32, dim)
	for i := range v {
		v[i] = r.rand.Float32()*2 - 1
	}
	return v
}

// Vectors generates num random vectors with components in [-1,1).
func (r *RNG) Vectors(num, dim int) [][]float32 {
	vectors := make([][]float32, num)
	for i := range vectors {
		vectors[i] = r.Vector(dim)
	}
	return vectors
}

// Near returns a copy of base with small jitter per component, producing
// a vector with high cosine similarity to base. jitter should be small
// relative to the component magnitudes (e.g. 0.01).
func (r *RNG) Near(base []float32, jitter float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := make([]float32, len(base))
	for i := range base {
		v[i] = base[i] + (r.rand.Float32()*2-1)*jitter
	}
	return v
}
