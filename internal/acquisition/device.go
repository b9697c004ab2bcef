package acquisition

import (
	"time"

	"github.com/chrissnell/rangesensor/internal/adc"
	"github.com/chrissnell/rangesensor/internal/sensor"
)

// Device bundles one configured sensor with its acquisition loop and the
// voltage source feeding it.
type Device struct {
	Sensor   *sensor.Sensor
	Loop     *Loop
	Interval time.Duration
	Source   adc.VoltageSource
}
