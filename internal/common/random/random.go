// internal/common/random/random.go
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is the randomness the verification and underwriting agents draw on.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

type pcgSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a PCG-backed source. A zero seed seeds from the clock.
func New(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &pcgSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *pcgSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *pcgSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Fixed always returns the same draws. Used by tests to pin the outcome.
type Fixed struct {
	Float float64
	Int   int
}

func (f Fixed) Float64() float64 { return f.Float }

// IntN returns Int clamped into [0, n).
func (f Fixed) IntN(n int) int {
	switch {
	case f.Int < 0:
		return 0
	case f.Int >= n:
		return n - 1
	default:
		return f.Int
	}
}
