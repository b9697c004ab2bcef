// Package types contains the core data types shared between the acquisition
// pipeline, storage engines, and controllers.
package types

import (
	"time"
)

// Reading is a single distance measurement emitted by the acquisition loop.
// Once constructed it is immutable; ownership passes to the hand-off queue on
// publish and then to whichever consumer dequeues it.
type Reading struct {
	Timestamp        time.Time `gorm:"column:time" json:"timestamp"`
	SensorName       string    `gorm:"column:sensorname" json:"sensor_name"`
	SessionID        string    `gorm:"column:sessionid" json:"session_id"`
	ElapsedTime      float64   `gorm:"column:elapsedtime" json:"elapsed_time"`
	DistanceCM       float64   `gorm:"column:distance" json:"distance_cm"`
	DistanceRawCM    float64   `gorm:"column:distanceraw" json:"distance_raw_cm"`
	VoltageV         float64   `gorm:"column:voltage" json:"voltage_v"`
	VoltageStdV      float64   `gorm:"column:voltagestd" json:"voltage_std"`
	FilterCovariance float64   `gorm:"column:filtercovariance" json:"filter_covariance"`
	// TemperatureC is a placeholder until a temperature sensor is wired in.
	TemperatureC float64 `gorm:"column:temperature" json:"temperature_c"`
}

// TableName implements the gorm Tabler interface so readings land in a
// sensibly-named table.
func (Reading) TableName() string {
	return "readings"
}
