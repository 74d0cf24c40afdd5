// Package randengine wraps golang.org/x/exp/rand with a small,
// thread-safe surface used by the mock simulator adapter to generate
// deterministic vehicle arrivals and speeds for tests and demos.
package randengine

import (
	"sync"

	"golang.org/x/exp/rand"
)

// Engine is a seeded random source with a thread-safe surface; the
// embedded *rand.Rand methods remain available unsynchronized for the
// single-goroutine fast path.
type Engine struct {
	*rand.Rand
	mtx sync.Mutex
}

// New creates a random engine seeded deterministically from seed.
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed))}
}

// PTrue returns true with probability p (not safe for concurrent use).
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// PTrueSafe is the concurrency-safe variant of PTrue.
func (e *Engine) PTrueSafe(p float64) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64() < p
}

// Float64Safe is the concurrency-safe variant of Float64.
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}

// UniformSafe returns a concurrency-safe uniform sample in [lo, hi).
func (e *Engine) UniformSafe(lo, hi float64) float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return lo + (hi-lo)*e.Float64()
}
