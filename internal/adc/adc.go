// Package adc provides voltage sources for the distance sensor's analog
// output. The acquisition pipeline treats a VoltageSource as a pure,
// possibly-blocking collaborator with bounded latency; retry policy lives in
// the acquisition loop, not here.
package adc

import (
	"fmt"

	"github.com/chrissnell/rangesensor/pkg/config"
)

// VoltageSource reads a single raw voltage from the sensor's analog output.
type VoltageSource interface {
	// ReadVoltage returns one raw sample in volts.
	ReadVoltage() (float64, error)
	Close() error
}

// New creates a VoltageSource from a device configuration.
func New(device *config.DeviceData) (VoltageSource, error) {
	switch device.Type {
	case "ads1115":
		return NewADS1115Source(device.I2CBus, device.ADCChannel)
	case "serial":
		return NewSerialSource(device.SerialDevice, device.Baud)
	case "sim":
		return NewSimulatedSource(15.0, 0.01), nil
	default:
		return nil, fmt.Errorf("unknown voltage source type: %s", device.Type)
	}
}
