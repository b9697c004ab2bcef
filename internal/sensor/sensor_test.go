package sensor

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/chrissnell/rangesensor/internal/adc"
	"go.uber.org/zap"
)

func newTestSensor(t *testing.T, distanceCM float64, opts Options) *Sensor {
	t.Helper()
	source := adc.NewSimulatedSource(distanceCM, 0)
	return New("test", source, opts, zap.NewNop().Sugar())
}

func TestSensorMeasureRaw(t *testing.T) {
	s := newTestSensor(t, 15.0, Options{SampleCount: 3})

	m, err := s.Measure(context.Background(), false)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}

	if math.Abs(m.DistanceRawCM-15.0) > 0.01 {
		t.Errorf("DistanceRawCM = %v, want ~15.0", m.DistanceRawCM)
	}
	if m.DistanceCM != m.DistanceRawCM {
		t.Errorf("unfiltered DistanceCM = %v, want raw value %v", m.DistanceCM, m.DistanceRawCM)
	}

	wantVoltage := 12.0/(15.0+0.42) + 0.04
	if math.Abs(m.VoltageV-wantVoltage) > 1e-9 {
		t.Errorf("VoltageV = %v, want %v", m.VoltageV, wantVoltage)
	}
}

func TestSensorMeasureFilteredConverges(t *testing.T) {
	s := newTestSensor(t, 10.0, Options{SampleCount: 2})

	var m Measurement
	var err error
	for i := 0; i < 40; i++ {
		m, err = s.Measure(context.Background(), true)
		if err != nil {
			t.Fatalf("Measure %d: %v", i, err)
		}
	}

	if math.Abs(m.DistanceCM-10.0) > 0.5 {
		t.Errorf("filtered distance after 40 reads = %v, want within 0.5 of 10.0", m.DistanceCM)
	}
	if s.ReadingCount() != 40 {
		t.Errorf("ReadingCount = %d, want 40", s.ReadingCount())
	}
}

func TestSensorMeasureOutputInRange(t *testing.T) {
	for _, distance := range []float64{2.0, 4.0, 15.0, 30.0, 50.0} {
		s := newTestSensor(t, distance, Options{SampleCount: 2})
		for i := 0; i < 10; i++ {
			m, err := s.Measure(context.Background(), true)
			if err != nil {
				t.Fatalf("Measure at %vcm: %v", distance, err)
			}
			if m.DistanceCM < MinDistanceCM || m.DistanceCM > MaxDistanceCM {
				t.Fatalf("target %vcm: DistanceCM = %v outside [%v, %v]",
					distance, m.DistanceCM, MinDistanceCM, MaxDistanceCM)
			}
		}
	}
}

func TestSensorStatistics(t *testing.T) {
	s := newTestSensor(t, 20.0, Options{SampleCount: 2})

	if got := s.Statistics(); got != nil {
		t.Fatalf("Statistics before any filtered reads = %+v, want nil", got)
	}

	for i := 0; i < 5; i++ {
		if _, err := s.Measure(context.Background(), true); err != nil {
			t.Fatalf("Measure: %v", err)
		}
	}

	stats := s.Statistics()
	if stats == nil {
		t.Fatal("Statistics after filtered reads = nil")
	}
	if stats.ReadingCount != 5 {
		t.Errorf("ReadingCount = %d, want 5", stats.ReadingCount)
	}
	if stats.Distance.Min < MinDistanceCM || stats.Distance.Max > MaxDistanceCM {
		t.Errorf("distance series [%v, %v] outside sensor range", stats.Distance.Min, stats.Distance.Max)
	}
	if stats.Voltage.Mean <= 0 {
		t.Errorf("voltage mean = %v, want > 0", stats.Voltage.Mean)
	}
}

func TestSensorCalibrationPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor_calibration.json")

	s := newTestSensor(t, 15.0, Options{SampleCount: 2, CalibrationFile: path})
	for _, p := range []struct{ d, v float64 }{{5, 3.0}, {15, 1.2}, {25, 0.45}} {
		if err := s.Calibration().AddPoint(p.d, p.v, 0.01); err != nil {
			t.Fatalf("AddPoint: %v", err)
		}
	}
	s.estimator.SetNoise(0.03, 0.3)

	if err := s.SaveCalibration(); err != nil {
		t.Fatalf("SaveCalibration: %v", err)
	}

	// A fresh sensor pointed at the same file restores the calibration on
	// construction.
	restored := newTestSensor(t, 15.0, Options{SampleCount: 2, CalibrationFile: path})
	if !restored.Calibration().Calibrated() {
		t.Fatal("restored sensor is not calibrated")
	}
	if got := len(restored.Calibration().Points()); got != 3 {
		t.Errorf("restored %d points, want 3", got)
	}
	q, r := restored.estimator.Noise()
	if q != 0.03 || r != 0.3 {
		t.Errorf("restored noise = (%v, %v), want (0.03, 0.3)", q, r)
	}
}

func TestSensorSaveCalibrationWithoutFile(t *testing.T) {
	s := newTestSensor(t, 15.0, Options{SampleCount: 2})
	if err := s.SaveCalibration(); err == nil {
		t.Fatal("SaveCalibration without a configured file returned nil error")
	}
}

func TestSensorClearCalibration(t *testing.T) {
	s := newTestSensor(t, 15.0, Options{SampleCount: 2})
	for _, p := range []struct{ d, v float64 }{{5, 3.0}, {15, 1.2}, {25, 0.45}} {
		if err := s.Calibration().AddPoint(p.d, p.v, 0.01); err != nil {
			t.Fatalf("AddPoint: %v", err)
		}
	}

	s.ClearCalibration()
	if s.Calibration().Calibrated() {
		t.Error("sensor still calibrated after ClearCalibration")
	}
}
