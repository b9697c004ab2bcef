package adc

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

var (
	hostOnce    sync.Once
	hostInitErr error
)

// ADS1115Source reads sensor voltages from an ADS1115 ADC over I²C.
type ADS1115Source struct {
	bus i2c.BusCloser
	pin ads1x15.PinADC
}

var adcChannels = []ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// NewADS1115Source opens the I²C bus and configures the requested ADC
// channel. The GP2Y0A41SK0F output never exceeds its 5V supply, so the
// channel is ranged accordingly. 128 samples/sec matches the sensor's
// update period.
func NewADS1115Source(busName string, channel int) (*ADS1115Source, error) {
	hostOnce.Do(func() {
		_, hostInitErr = host.Init()
	})
	if hostInitErr != nil {
		return nil, fmt.Errorf("periph host init: %w", hostInitErr)
	}

	if channel < 0 || channel >= len(adcChannels) {
		return nil, fmt.Errorf("ADC channel must be 0-3, got %d", channel)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I²C bus %q: %w", busName, err)
	}

	dev, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize ADS1115: %w", err)
	}

	pin, err := dev.PinForChannel(adcChannels[channel], 5*physic.Volt, 128*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to configure ADC channel %d: %w", channel, err)
	}

	return &ADS1115Source{bus: bus, pin: pin}, nil
}

// ReadVoltage performs a single conversion and returns the result in volts.
func (a *ADS1115Source) ReadVoltage() (float64, error) {
	sample, err := a.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("ADC read failed: %w", err)
	}
	return toVolts(sample), nil
}

// Close releases the ADC pin and the I²C bus.
func (a *ADS1115Source) Close() error {
	if err := a.pin.Halt(); err != nil {
		a.bus.Close()
		return err
	}
	return a.bus.Close()
}

func toVolts(s analog.Sample) float64 {
	return float64(s.V) / float64(physic.Volt)
}
