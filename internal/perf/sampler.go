package perf

import (
	"math"
	"sort"
	"time"
)

// Sampler keeps the most recent latency samples in a ring and computes
// percentiles over them. Not safe for concurrent use; the harness is
// single-threaded like the ledger it drives.
type Sampler struct {
	ring []float64 // microseconds
	next int
	size int
}

// NewSampler returns a sampler holding up to capacity samples.
func NewSampler(capacity int) *Sampler {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Sampler{ring: make([]float64, capacity)}
}

// Record adds one operation latency.
func (s *Sampler) Record(d time.Duration) {
	s.ring[s.next] = float64(d.Nanoseconds()) / 1e3
	s.next = (s.next + 1) % len(s.ring)
	if s.size < len(s.ring) {
		s.size++
	}
}

// Count returns the number of retained samples.
func (s *Sampler) Count() int {
	return s.size
}

// Percentiles returns the p50, p95, and p99 latencies in microseconds over
// the retained samples, or zeros when nothing has been recorded.
func (s *Sampler) Percentiles() (p50, p95, p99 float64) {
	if s.size == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, s.size)
	copy(sorted, s.ring[:s.size])
	sort.Float64s(sorted)
	return quantile(sorted, 0.50), quantile(sorted, 0.95), quantile(sorted, 0.99)
}

// quantile linearly interpolates the q-th quantile of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := q * float64(n-1)
	lower := int(math.Floor(rank))
	if lower+1 >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[lower+1]*frac
}
