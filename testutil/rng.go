package testutil

import (
	"math/rand"
	"sync"
)

// RNG is a seeded, thread-safe source of test geometry and rasters.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
	seed int64
}

// NewRNG creates a new RNG with the given seed.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed)), seed: seed}
}

// Reset rewinds the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 { return r.seed }

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniform fills dst with values in [minVal, maxVal).
func (r *RNG) FillUniform(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// Points returns n random xyz triples inside the unit cube.
func (r *RNG) Points(n int) []float32 {
	out := make([]float32, n*3)
	r.FillUniform(out, -1, 1)
	return out
}

// Grid returns a row-major sizeX by sizeY raster with values in [0, 1).
func (r *RNG) Grid(sizeX, sizeY int) []float32 {
	out := make([]float32, sizeX*sizeY)
	r.FillUniform(out, 0, 1)
	return out
}

// Uint16Grid returns a row-major raster of 16-bit samples.
func (r *RNG) Uint16Grid(sizeX, sizeY int) []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint16, sizeX*sizeY)
	for i := range out {
		out[i] = uint16(r.rand.Intn(1 << 16))
	}
	return out
}

// Labels returns n strings drawn from choices.
func (r *RNG) Labels(n int, choices ...string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, n)
	for i := range out {
		out[i] = choices[r.rand.Intn(len(choices))]
	}
	return out
}
