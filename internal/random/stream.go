// Package random provides the single explicit random stream every generation
// pass draws from. Reseeding a Stream makes the draws that follow reproducible.
package random

import (
	"math/rand"
)

// Source is the minimal generator a Stream needs. *rand.Rand satisfies it, and
// tests can supply a Scripted source instead.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Stream wraps a Source with the sampling helpers used across the generator.
// A Stream is not safe for concurrent use.
type Stream struct {
	src Source
}

// New returns a Stream seeded with seed.
func New(seed int64) *Stream {
	return &Stream{src: rand.New(rand.NewSource(seed))}
}

// FromSource wraps an arbitrary Source.
func FromSource(src Source) *Stream {
	return &Stream{src: src}
}

// Seed replaces the underlying generator with a fresh one seeded with seed.
// A Stream built from a custom Source is switched to the default generator.
func (s *Stream) Seed(seed int64) {
	s.src = rand.New(rand.NewSource(seed))
}

// Float64 returns a draw in [0, 1).
func (s *Stream) Float64() float64 {
	return s.src.Float64()
}

// Chance draws once and reports whether the draw fell below p.
func (s *Stream) Chance(p float64) bool {
	return s.src.Float64() < p
}

// Intn returns a draw in [0, n). It panics if n <= 0.
func (s *Stream) Intn(n int) int {
	return s.src.Intn(n)
}

// Between returns a draw in the closed range [lo, hi]. When hi < lo it returns lo.
func (s *Stream) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.src.Intn(hi-lo+1)
}

// Weighted returns an index into weights drawn proportionally to its weight.
// Non-positive weights are never chosen. It returns -1 if no weight is positive.
func (s *Stream) Weighted(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	target := s.src.Float64() * total
	acc := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if target < acc {
			return i
		}
	}
	return last
}

// Sample returns k distinct indices from [0, n) in draw order.
// k is clamped to n.
func (s *Stream) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		j := i + s.src.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
		out[i] = pool[i]
	}
	return out
}

// Shuffle permutes n elements with a Fisher-Yates pass using swap.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.src.Intn(i + 1)
		swap(i, j)
	}
}

// Pick returns a uniformly chosen element of items. It panics on an empty slice.
func Pick[T any](s *Stream, items []T) T {
	return items[s.Intn(len(items))]
}
