package adc

import (
	"math/rand"
	"sync"
)

// SimulatedSource produces voltages a GP2Y0A41SK0F would emit for a target
// distance, with gaussian noise layered on. Used by tests and the simulator
// command.
type SimulatedSource struct {
	mu         sync.Mutex
	distanceCM float64
	noiseStdV  float64
	rng        *rand.Rand
}

// NewSimulatedSource creates a source that simulates an object at the given
// distance with the given voltage noise (stdev, volts).
func NewSimulatedSource(distanceCM, noiseStdV float64) *SimulatedSource {
	return &SimulatedSource{
		distanceCM: distanceCM,
		noiseStdV:  noiseStdV,
		rng:        rand.New(rand.NewSource(1)),
	}
}

// SetDistance moves the simulated object.
func (s *SimulatedSource) SetDistance(distanceCM float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.distanceCM = distanceCM
}

// ReadVoltage inverts the sensor's characteristic curve
// (distance = a/(voltage-b) - c) and adds noise. It never fails.
func (s *SimulatedSource) ReadVoltage() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const (
		a = 12.0
		b = 0.04
		c = 0.42
	)
	v := a/(s.distanceCM+c) + b
	v += s.rng.NormFloat64() * s.noiseStdV
	if v < 0 {
		v = 0
	}
	return v, nil
}

// Close is a no-op for the simulated source.
func (s *SimulatedSource) Close() error {
	return nil
}
