package sensor

import (
	"math"
	"testing"
)

func TestSmoothingBufferIdentityWhenNearlyEmpty(t *testing.T) {
	s := NewSmoothingBuffer()

	for _, v := range []float64{12.0, 14.0, 16.0} {
		if got := s.Push(v); got != v {
			t.Errorf("Push(%v) with %d entries = %v, want identity", v, s.Len(), got)
		}
	}
}

func TestSmoothingBufferWeightedAverage(t *testing.T) {
	s := NewSmoothingBuffer()
	for i := 0; i < 9; i++ {
		s.Push(10.0)
	}

	got := s.Push(20.0)

	// Recency weighting pulls the result above the unweighted mean of the
	// buffer (11.0) but it stays below the newest sample.
	if got <= 11.0 || got >= 20.0 {
		t.Errorf("Push(20.0) after nine 10.0s = %v, want in (11.0, 20.0)", got)
	}
}

func TestSmoothingBufferConstantInput(t *testing.T) {
	s := NewSmoothingBuffer()
	var got float64
	for i := 0; i < 8; i++ {
		got = s.Push(5.0)
	}
	if math.Abs(got-5.0) > 1e-9 {
		t.Errorf("constant input smoothed to %v, want 5.0", got)
	}
}

func TestSmoothingBufferStaysWithinInputRange(t *testing.T) {
	s := NewSmoothingBuffer()
	inputs := []float64{4.0, 30.0, 10.0, 25.0, 7.0, 18.0, 22.0, 5.0}
	for _, v := range inputs {
		got := s.Push(v)
		if got < 4.0 || got > 30.0 {
			t.Fatalf("Push(%v) = %v outside input range", v, got)
		}
	}
}

func TestSmoothingBufferBounded(t *testing.T) {
	s := NewSmoothingBuffer()
	for i := 0; i < 25; i++ {
		s.Push(float64(i))
	}
	if s.Len() != smoothingBufferSize {
		t.Errorf("Len() = %d after 25 pushes, want %d", s.Len(), smoothingBufferSize)
	}

	vals := s.Values()
	if vals[0] != 15.0 || vals[len(vals)-1] != 24.0 {
		t.Errorf("Values() = %v, want oldest 15 and newest 24", vals)
	}
}
