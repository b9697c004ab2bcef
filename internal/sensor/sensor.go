// Package sensor implements the signal-acquisition and estimation pipeline
// for the Sharp GP2Y0A41SK0F analog distance sensor: outlier-robust voltage
// sampling, voltage→distance conversion (characteristic curve or empirical
// calibration), recursive filtering, and bounded-history smoothing.
package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/rangesensor/internal/adc"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// defaultSampleCount is the raw samples averaged per voltage read.
	defaultSampleCount = 10

	// Calibration collects calibrationRounds reads of
	// calibrationSampleCount samples, spaced calibrationDelay apart.
	calibrationRounds      = 50
	calibrationSampleCount = 5
	calibrationDelay       = 100 * time.Millisecond
)

// Sensor composes the estimation pipeline and tracks per-session reading
// statistics. The acquisition producer owns all mutable filter and
// calibration state while running; the mutex exists so statistics snapshots
// can be taken from other goroutines without racing the producer.
type Sensor struct {
	mu sync.RWMutex

	name            string
	sampler         *Sampler
	calibration     *CalibrationModel
	estimator       *RecursiveEstimator
	smoothing       *SmoothingBuffer
	sampleCount     int
	calibrationFile string
	logger          *zap.SugaredLogger

	readingCount    int64
	lastReadingTime time.Time
}

// Options tunes a Sensor beyond its defaults.
type Options struct {
	// SampleCount overrides the raw samples per voltage read.
	SampleCount int
	// CalibrationFile is the persisted calibration record; empty disables
	// persistence.
	CalibrationFile string
	// DisableFilter turns the recursive estimator into a pass-through.
	DisableFilter bool
}

// New creates a Sensor reading from the given voltage source. If a
// calibration file is configured and present it is loaded; a missing or
// corrupt record is reported and the default curve is used instead — it never
// prevents startup.
func New(name string, source adc.VoltageSource, opts Options, logger *zap.SugaredLogger) *Sensor {
	s := &Sensor{
		name:            name,
		sampler:         NewSampler(source),
		calibration:     NewCalibrationModel(),
		estimator:       NewRecursiveEstimator(),
		smoothing:       NewSmoothingBuffer(),
		sampleCount:     opts.SampleCount,
		calibrationFile: opts.CalibrationFile,
		logger:          logger,
	}
	if s.sampleCount < 1 {
		s.sampleCount = defaultSampleCount
	}
	if opts.DisableFilter {
		s.estimator.SetEnabled(false)
	}

	if s.calibrationFile != "" {
		if err := s.LoadCalibration(); err != nil {
			logger.Warnf("sensor [%s]: no stored calibration, using default curve: %v", name, err)
		}
	}

	return s
}

// Name returns the configured sensor name.
func (s *Sensor) Name() string {
	return s.name
}

// Measurement is one complete pass through the pipeline.
type Measurement struct {
	VoltageV      float64
	VoltageStdV   float64
	DistanceRawCM float64
	DistanceCM    float64
	Covariance    float64
}

// Measure performs one full read: sample → convert → filter → smooth. When
// applyFilter is false the raw converted distance is returned and filter
// state is left untouched. Arithmetic edge cases are absorbed by the
// conversion clamping; only a failing voltage source produces an error.
func (s *Sensor) Measure(ctx context.Context, applyFilter bool) (Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	voltage, err := s.sampler.Sample(ctx, s.sampleCount)
	if err != nil {
		return Measurement{}, fmt.Errorf("sensor [%s]: %w", s.name, err)
	}

	raw := s.calibration.Convert(voltage)
	distance := raw
	if applyFilter {
		distance = s.smoothing.Push(s.estimator.Update(raw))
	}

	s.readingCount++
	s.lastReadingTime = time.Now()

	return Measurement{
		VoltageV:      voltage,
		VoltageStdV:   s.sampler.NoiseStdev(),
		DistanceRawCM: raw,
		DistanceCM:    distance,
		Covariance:    s.estimator.Covariance(),
	}, nil
}

// ReadDistance performs one full read and returns just the distance.
func (s *Sensor) ReadDistance(ctx context.Context, applyFilter bool) (float64, error) {
	m, err := s.Measure(ctx, applyFilter)
	if err != nil {
		return 0, err
	}
	return m.DistanceCM, nil
}

// Series summarizes one measured quantity.
type Series struct {
	Current float64 `json:"current"`
	Mean    float64 `json:"mean"`
	Stdev   float64 `json:"std"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Statistics is an on-demand snapshot of recent pipeline behavior.
type Statistics struct {
	ReadingCount int64   `json:"readings_count"`
	Distance     Series  `json:"distance"`
	Voltage      Series  `json:"voltage"`
	RateHz       float64 `json:"rate_hz"`
}

// Statistics summarizes the smoothing buffer and voltage history. It returns
// nil when no readings exist yet; callers must handle the absence rather than
// assume a value.
func (s *Sensor) Statistics() *Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	distances := s.smoothing.Values()
	if len(distances) == 0 {
		return nil
	}
	voltages := s.sampler.History()

	stats := &Statistics{
		ReadingCount: s.readingCount,
		Distance:     summarize(distances),
		Voltage:      summarize(voltages),
	}
	if dt := time.Since(s.lastReadingTime).Seconds(); dt > 0 {
		stats.RateHz = 1.0 / dt
	}
	return stats
}

func summarize(vals []float64) Series {
	if len(vals) == 0 {
		return Series{}
	}
	return Series{
		Current: vals[len(vals)-1],
		Mean:    stat.Mean(vals, nil),
		Stdev:   stat.PopStdDev(vals, nil),
		Min:     floats.Min(vals),
		Max:     floats.Max(vals),
	}
}

// ReadingCount returns the number of completed reads this session.
func (s *Sensor) ReadingCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readingCount
}

// CalibratePoint measures the sensor against a known distance: it collects
// repeated averaged voltage reads, records their mean and spread as a
// calibration point, and rebuilds the interpolant once three or more points
// exist. Calibration assumes acquisition is stopped.
func (s *Sensor) CalibratePoint(ctx context.Context, actualDistanceCM float64) (voltageV, stdevV float64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infof("sensor [%s]: calibrating %.1fcm, collecting %d samples...",
		s.name, actualDistanceCM, calibrationRounds)

	voltages := make([]float64, 0, calibrationRounds)
	for i := 0; i < calibrationRounds; i++ {
		v, err := s.sampler.Sample(ctx, calibrationSampleCount)
		if err != nil {
			return 0, 0, fmt.Errorf("calibration sample %d/%d: %w", i+1, calibrationRounds, err)
		}
		voltages = append(voltages, v)

		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-time.After(calibrationDelay):
		}
	}

	voltageV = stat.Mean(voltages, nil)
	stdevV = stat.PopStdDev(voltages, nil)

	if err := s.calibration.AddPoint(actualDistanceCM, voltageV, stdevV); err != nil {
		return 0, 0, err
	}

	s.logger.Infof("sensor [%s]: calibrated %.1fcm = %.3fV (±%.3fV), %d points",
		s.name, actualDistanceCM, voltageV, stdevV, len(s.calibration.Points()))
	return voltageV, stdevV, nil
}

// Calibration returns the underlying calibration model. The caller must not
// mutate it while acquisition is running.
func (s *Sensor) Calibration() *CalibrationModel {
	return s.calibration
}

// ClearCalibration discards all calibration points, reverting to the default
// curve.
func (s *Sensor) ClearCalibration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calibration.Clear()
	s.logger.Infof("sensor [%s]: calibration cleared, using default curve", s.name)
}

// SaveCalibration persists the calibration points and estimator noise
// parameters to the configured calibration file.
func (s *Sensor) SaveCalibration() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.calibrationFile == "" {
		return fmt.Errorf("sensor [%s]: no calibration file configured", s.name)
	}

	q, r := s.estimator.Noise()
	err := SaveCalibration(s.calibrationFile, s.name, s.calibration.Points(),
		KalmanParams{ProcessNoise: q, MeasurementNoise: r})
	if err != nil {
		return err
	}
	s.logger.Infof("sensor [%s]: calibration saved to %s", s.name, s.calibrationFile)
	return nil
}

// LoadCalibration restores the calibration points and estimator noise
// parameters from the configured calibration file.
func (s *Sensor) LoadCalibration() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calibrationFile == "" {
		return fmt.Errorf("sensor [%s]: no calibration file configured", s.name)
	}

	record, err := LoadCalibration(s.calibrationFile)
	if err != nil {
		return err
	}

	if err := s.calibration.setPoints(record.CalibrationPoints); err != nil {
		return fmt.Errorf("sensor [%s]: restoring calibration: %w", s.name, err)
	}
	s.estimator.SetNoise(record.KalmanParams.ProcessNoise, record.KalmanParams.MeasurementNoise)

	s.logger.Infof("sensor [%s]: calibration loaded: %d points", s.name, len(record.CalibrationPoints))
	return nil
}
