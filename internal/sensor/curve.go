package sensor

import "math"

// Physical parameters of the Sharp GP2Y0A41SK0F distance sensor.
const (
	// MinDistanceCM and MaxDistanceCM bound the sensor's usable range.
	MinDistanceCM = 4.0
	MaxDistanceCM = 30.0

	// Below lowVoltageCutoff the object is too far (or absent); above
	// highVoltageCutoff the sensor is saturated (object too close).
	lowVoltageCutoff  = 0.25
	highVoltageCutoff = 3.3

	// Characteristic curve constants: distance = a/(voltage-b) - c
	curveA = 12.0
	curveB = 0.04
	curveC = 0.42
)

// DefaultDistance converts a voltage to distance (cm) using the sensor's
// characteristic curve. Output is always within [MinDistanceCM,
// MaxDistanceCM] for any finite input. Arithmetic faults near the curve's
// singularity (voltage ≈ curveB) resolve to MaxDistanceCM, matching the
// sensor's out-of-range behavior.
func DefaultDistance(voltage float64) float64 {
	if voltage < lowVoltageCutoff {
		return MaxDistanceCM
	}
	if voltage > highVoltageCutoff {
		return MinDistanceCM
	}

	distance := curveA/(voltage-curveB) - curveC
	if math.IsNaN(distance) || math.IsInf(distance, 0) {
		return MaxDistanceCM
	}
	return clampDistance(distance)
}

func clampDistance(d float64) float64 {
	if d < MinDistanceCM {
		return MinDistanceCM
	}
	if d > MaxDistanceCM {
		return MaxDistanceCM
	}
	return d
}
