package sensor

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// minCalibrationPoints is the smallest point set a usable interpolant can be
// fit through.
const minCalibrationPoints = 3

// ErrTooFewPoints is returned when an interpolant rebuild is requested with
// fewer than minCalibrationPoints calibration points.
var ErrTooFewPoints = errors.New("at least 3 calibration points required for interpolation")

// CalibrationPoint is one operator-supplied (distance, voltage) measurement
// with the voltage noise observed while collecting it. JSON field names match
// the on-disk calibration record.
type CalibrationPoint struct {
	DistanceCM float64 `json:"distance"`
	VoltageV   float64 `json:"voltage"`
	StdevV     float64 `json:"std"`
}

// CalibrationModel owns the calibration point set and the monotone cubic
// interpolant fit through it. Without an interpolant, conversion falls back
// to the sensor's default characteristic curve.
type CalibrationModel struct {
	points []CalibrationPoint

	// fitted voltage→distance curve; nil when fewer than
	// minCalibrationPoints exist or a fit has not succeeded.
	curve      *interp.FritschButland
	vmin, vmax float64
}

// NewCalibrationModel creates an empty model using the default curve.
func NewCalibrationModel() *CalibrationModel {
	return &CalibrationModel{}
}

// AddPoint appends a calibration point, keeps the set sorted ascending by
// distance, and rebuilds the interpolant once enough points exist. The
// distance must lie strictly within the sensor's physical range. If the new
// point makes the voltage sequence non-monotone (a noisy sensor can measure
// the same averaged voltage at two distances), the rebuild fails and the
// point set is restored to its previous state.
func (m *CalibrationModel) AddPoint(distanceCM, voltageV, stdevV float64) error {
	if distanceCM <= MinDistanceCM || distanceCM >= MaxDistanceCM {
		return fmt.Errorf("calibration distance %.1fcm outside sensor range (%.0f, %.0f)",
			distanceCM, MinDistanceCM, MaxDistanceCM)
	}

	updated := make([]CalibrationPoint, len(m.points), len(m.points)+1)
	copy(updated, m.points)
	updated = append(updated, CalibrationPoint{
		DistanceCM: distanceCM,
		VoltageV:   voltageV,
		StdevV:     stdevV,
	})
	sort.Slice(updated, func(i, j int) bool {
		return updated[i].DistanceCM < updated[j].DistanceCM
	})

	prev := m.points
	m.points = updated

	if len(m.points) >= minCalibrationPoints {
		if err := m.Rebuild(); err != nil {
			m.points = prev
			return err
		}
	}
	return nil
}

// Rebuild fits a monotone cubic interpolant through the (voltage, distance)
// pairs, ordered by voltage. Voltages outside the fitted range clamp to
// MaxDistanceCM (below) and MinDistanceCM (above) rather than extrapolating.
// The fit requires strictly increasing voltages; two points sharing a voltage
// fail the rebuild and leave the existing interpolant untouched, as does a
// set with fewer than minCalibrationPoints points (ErrTooFewPoints).
func (m *CalibrationModel) Rebuild() error {
	if len(m.points) < minCalibrationPoints {
		return ErrTooFewPoints
	}

	byVoltage := make([]CalibrationPoint, len(m.points))
	copy(byVoltage, m.points)
	sort.Slice(byVoltage, func(i, j int) bool {
		return byVoltage[i].VoltageV < byVoltage[j].VoltageV
	})

	xs := make([]float64, len(byVoltage))
	ys := make([]float64, len(byVoltage))
	for i, p := range byVoltage {
		xs[i] = p.VoltageV
		ys[i] = p.DistanceCM
	}

	// FritschButland panics rather than erroring on non-increasing xs, so
	// the sequence is checked here before handing it to the fit.
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return fmt.Errorf("calibration voltages must be strictly increasing: %.3fV measured at both %.1fcm and %.1fcm",
				xs[i-1], ys[i-1], ys[i])
		}
	}

	var fb interp.FritschButland
	if err := fb.Fit(xs, ys); err != nil {
		return fmt.Errorf("interpolant fit failed: %w", err)
	}

	m.curve = &fb
	m.vmin = xs[0]
	m.vmax = xs[len(xs)-1]
	return nil
}

// Convert maps a voltage to distance (cm) using the fitted interpolant when
// one exists, else the default characteristic curve. This is the single
// conversion entry point for the estimation pipeline. Output is always within
// [MinDistanceCM, MaxDistanceCM].
func (m *CalibrationModel) Convert(voltageV float64) float64 {
	if m.curve == nil {
		return DefaultDistance(voltageV)
	}
	if voltageV < m.vmin {
		return MaxDistanceCM
	}
	if voltageV > m.vmax {
		return MinDistanceCM
	}
	return clampDistance(m.curve.Predict(voltageV))
}

// Calibrated reports whether a fitted interpolant is in use.
func (m *CalibrationModel) Calibrated() bool {
	return m.curve != nil
}

// Points returns a copy of the calibration point set, sorted ascending by
// distance.
func (m *CalibrationModel) Points() []CalibrationPoint {
	out := make([]CalibrationPoint, len(m.points))
	copy(out, m.points)
	return out
}

// Clear discards all points and the interpolant, reverting to the default
// curve.
func (m *CalibrationModel) Clear() {
	m.points = nil
	m.curve = nil
	m.vmin, m.vmax = 0, 0
}

// setPoints replaces the point set wholesale (used when loading a persisted
// calibration) and rebuilds the interpolant if enough points exist.
func (m *CalibrationModel) setPoints(points []CalibrationPoint) error {
	m.points = make([]CalibrationPoint, len(points))
	copy(m.points, points)
	sort.Slice(m.points, func(i, j int) bool {
		return m.points[i].DistanceCM < m.points[j].DistanceCM
	})

	if len(m.points) >= minCalibrationPoints {
		return m.Rebuild()
	}
	m.curve = nil
	return nil
}
