package random

import (
	"math/rand/v2"
	"sync"
)

// Live implements ports.RandomSource with the global math/rand/v2 source.
type Live struct{}

// Bool returns a uniformly random boolean.
func (Live) Bool() bool {
	return rand.IntN(2) == 1
}

// IntN returns a uniformly random value in [0, n).
func (Live) IntN(n int) int {
	return rand.IntN(n)
}

// Seeded is a reproducible source. Two sources with the same seed yield the
// same sequence. Safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded creates a PCG-backed source.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Seeded) Bool() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(2) == 1
}

func (s *Seeded) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Fixed replays the given values in a loop. Bool reports whether the next
// value is odd.
type Fixed struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewFixed creates a source that cycles through values.
func NewFixed(values ...int) *Fixed {
	if len(values) == 0 {
		values = []int{0}
	}
	return &Fixed{values: values}
}

func (f *Fixed) Bool() bool {
	return f.take()%2 != 0
}

// IntN returns the next value modulo n.
func (f *Fixed) IntN(n int) int {
	if n <= 0 {
		panic("random: invalid argument to IntN")
	}
	v := f.take() % n
	if v < 0 {
		v += n
	}
	return v
}

func (f *Fixed) take() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.values[f.next]
	f.next = (f.next + 1) % len(f.values)
	return v
}
