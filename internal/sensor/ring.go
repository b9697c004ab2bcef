package sensor

// ring is a bounded FIFO of float64 samples. Pushing beyond capacity evicts
// the oldest entry.
type ring struct {
	capacity int
	vals     []float64
}

func newRing(capacity int) *ring {
	return &ring{capacity: capacity}
}

func (r *ring) Push(v float64) {
	r.vals = append(r.vals, v)
	if len(r.vals) > r.capacity {
		r.vals = r.vals[1:]
	}
}

func (r *ring) Len() int {
	return len(r.vals)
}

// Values returns the buffered samples, oldest first.
func (r *ring) Values() []float64 {
	out := make([]float64, len(r.vals))
	copy(out, r.vals)
	return out
}

func (r *ring) Last() (float64, bool) {
	if len(r.vals) == 0 {
		return 0, false
	}
	return r.vals[len(r.vals)-1], true
}

func (r *ring) Clear() {
	r.vals = r.vals[:0]
}
