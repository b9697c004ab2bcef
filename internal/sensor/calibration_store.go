package sensor

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// KalmanParams are the estimator noise parameters persisted alongside the
// calibration points so a reload restores consistent filter behavior.
type KalmanParams struct {
	ProcessNoise     float64 `json:"q"`
	MeasurementNoise float64 `json:"r"`
}

// CalibrationRecord is the on-disk calibration document. The layout matches
// the sensor_calibration.json files produced by earlier tooling so existing
// calibrations keep loading.
type CalibrationRecord struct {
	Sensor            string             `json:"sensor"`
	Timestamp         time.Time          `json:"timestamp"`
	CalibrationPoints []CalibrationPoint `json:"calibration_points"`
	KalmanParams      KalmanParams       `json:"kalman_params"`
}

// SaveCalibration writes a calibration record to path. Point ordering and
// parameter values survive a save/load cycle exactly.
func SaveCalibration(path, sensorID string, points []CalibrationPoint, params KalmanParams) error {
	record := CalibrationRecord{
		Sensor:            sensorID,
		Timestamp:         time.Now(),
		CalibrationPoints: points,
		KalmanParams:      params,
	}

	data, err := json.MarshalIndent(&record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode calibration record: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration file %s: %w", path, err)
	}
	return nil
}

// LoadCalibration reads a calibration record from path. A missing or
// malformed file is an error the caller should treat as non-fatal: the
// sensor falls back to its default curve.
func LoadCalibration(path string) (*CalibrationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file %s: %w", path, err)
	}

	var record CalibrationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse calibration file %s: %w", path, err)
	}
	return &record, nil
}
