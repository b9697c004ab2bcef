package sensor

import (
	"math"
	"testing"
)

func TestRecursiveEstimatorConverges(t *testing.T) {
	e := NewRecursiveEstimator()

	var estimate float64
	for i := 0; i < 50; i++ {
		estimate = e.Update(25.0)
	}

	if math.Abs(estimate-25.0) > 0.5 {
		t.Errorf("estimate after 50 constant measurements = %v, want within 0.5 of 25.0", estimate)
	}
}

func TestRecursiveEstimatorMovesTowardMeasurement(t *testing.T) {
	e := NewRecursiveEstimator()

	prev := e.Estimate()
	for i := 0; i < 10; i++ {
		got := e.Update(28.0)
		if got <= prev {
			t.Fatalf("update %d: estimate %v did not move toward measurement (prev %v)", i, got, prev)
		}
		if got > 28.0 {
			t.Fatalf("update %d: estimate %v overshot measurement", i, got)
		}
		prev = got
	}
}

func TestRecursiveEstimatorCovarianceShrinksWithoutProcessNoise(t *testing.T) {
	e := NewRecursiveEstimator()
	e.SetNoise(0, 0.1)

	prev := e.Covariance()
	for i := 0; i < 20; i++ {
		e.Update(15.0)
		cov := e.Covariance()
		if cov >= prev {
			t.Fatalf("update %d: covariance %v did not decrease from %v", i, cov, prev)
		}
		if cov < 0 {
			t.Fatalf("update %d: covariance %v went negative", i, cov)
		}
		prev = cov
	}
}

func TestRecursiveEstimatorDisabledIsIdentity(t *testing.T) {
	e := NewRecursiveEstimator()
	e.SetEnabled(false)

	beforeEstimate := e.Estimate()
	beforeCovariance := e.Covariance()

	if got := e.Update(7.0); got != 7.0 {
		t.Errorf("disabled Update(7.0) = %v, want 7.0", got)
	}
	if e.Estimate() != beforeEstimate {
		t.Errorf("disabled update changed estimate: %v -> %v", beforeEstimate, e.Estimate())
	}
	if e.Covariance() != beforeCovariance {
		t.Errorf("disabled update changed covariance: %v -> %v", beforeCovariance, e.Covariance())
	}
}

func TestRecursiveEstimatorNoiseRoundTrip(t *testing.T) {
	e := NewRecursiveEstimator()
	e.SetNoise(0.5, 2.0)

	q, r := e.Noise()
	if q != 0.5 || r != 2.0 {
		t.Errorf("Noise() = (%v, %v), want (0.5, 2.0)", q, r)
	}
}
