package sensor

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// smoothingBufferSize bounds the filtered-distance buffer.
const smoothingBufferSize = 10

// SmoothingBuffer is a secondary smoothing stage layered atop the recursive
// estimator. It keeps the most recent filtered distances and produces a
// recency-biased weighted average, trading a little latency for less
// short-term jitter.
type SmoothingBuffer struct {
	buf *ring
}

// NewSmoothingBuffer creates an empty buffer.
func NewSmoothingBuffer() *SmoothingBuffer {
	return &SmoothingBuffer{buf: newRing(smoothingBufferSize)}
}

// Push appends a filtered distance, evicting the oldest on overflow, and
// returns the smoothed value. With three or fewer entries the pushed value is
// returned unmodified; beyond that, an exponentially-weighted average with
// weights exp(linspace(-1, 0, n)) favors recent entries.
func (s *SmoothingBuffer) Push(distance float64) float64 {
	s.buf.Push(distance)

	vals := s.buf.Values()
	n := len(vals)
	if n <= 3 {
		return distance
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = math.Exp(-1 + float64(i)/float64(n-1))
	}
	return stat.Mean(vals, weights)
}

// Values returns the buffered distances, oldest first.
func (s *SmoothingBuffer) Values() []float64 {
	return s.buf.Values()
}

// Len returns the number of buffered distances.
func (s *SmoothingBuffer) Len() int {
	return s.buf.Len()
}
