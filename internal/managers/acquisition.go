// Package managers wires configured devices, storage backends, and
// controllers together.
package managers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/rangesensor/internal/acquisition"
	"github.com/chrissnell/rangesensor/internal/adc"
	"github.com/chrissnell/rangesensor/internal/log"
	"github.com/chrissnell/rangesensor/internal/sensor"
	"github.com/chrissnell/rangesensor/internal/types"
	"github.com/chrissnell/rangesensor/pkg/config"
	"go.uber.org/zap"
)

// defaultPollInterval is used when a device does not configure one.
const defaultPollInterval = 100 * time.Millisecond

// AcquisitionManager owns all configured devices and bridges their hand-off
// queues into the storage distributor.
type AcquisitionManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	distributor chan types.Reading
	store       acquisition.ReadingStore
	logger      *zap.SugaredLogger

	mu      sync.RWMutex
	devices map[string]*acquisition.Device
}

// NewAcquisitionManager builds a sensor pipeline for every enabled device.
// A non-nil store is attached to every loop for synchronous per-reading
// persistence. An unavailable voltage source is fatal for initialization: if
// the hardware is absent at startup there is nothing to acquire from.
func NewAcquisitionManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, distributor chan types.Reading, store acquisition.ReadingStore, logger *zap.SugaredLogger) (*AcquisitionManager, error) {
	devices, err := configProvider.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("error loading device configuration: %w", err)
	}

	m := &AcquisitionManager{
		ctx:         ctx,
		wg:          wg,
		distributor: distributor,
		store:       store,
		logger:      logger,
		devices:     make(map[string]*acquisition.Device),
	}

	for i := range devices {
		deviceConfig := &devices[i]
		if !deviceConfig.Enabled {
			logger.Infof("Skipping disabled device [%s]", deviceConfig.Name)
			continue
		}

		device, err := m.buildDevice(deviceConfig)
		if err != nil {
			return nil, fmt.Errorf("error creating sensor device [%s]: %w", deviceConfig.Name, err)
		}
		m.devices[deviceConfig.Name] = device
	}

	return m, nil
}

func (m *AcquisitionManager) buildDevice(deviceConfig *config.DeviceData) (*acquisition.Device, error) {
	log.Infof("Initializing %s distance sensor [%v]", deviceConfig.Type, deviceConfig.Name)

	source, err := adc.New(deviceConfig)
	if err != nil {
		return nil, err
	}

	sens := sensor.New(deviceConfig.Name, source, sensor.Options{
		SampleCount:     deviceConfig.SampleCount,
		CalibrationFile: deviceConfig.CalibrationFile,
		DisableFilter:   deviceConfig.KalmanDisabled,
	}, m.logger)

	interval := defaultPollInterval
	if deviceConfig.PollIntervalMs > 0 {
		interval = time.Duration(deviceConfig.PollIntervalMs) * time.Millisecond
	}

	loop := acquisition.NewLoop(sens, m.logger)
	if m.store != nil {
		loop.SetStore(m.store)
	}

	return &acquisition.Device{
		Sensor:   sens,
		Loop:     loop,
		Interval: interval,
		Source:   source,
	}, nil
}

// StartAcquisition starts every device's acquisition loop and the pump
// goroutines that forward readings to the storage distributor.
func (m *AcquisitionManager) StartAcquisition() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, device := range m.devices {
		m.logger.Infof("Starting acquisition for device [%v]...", name)
		device.Loop.Start(m.ctx, device.Interval)

		m.wg.Add(1)
		go m.pump(device.Loop)
	}
	return nil
}

// pump forwards readings from one loop's hand-off queue to the storage
// distributor. If the distributor backs up, readings age out of the loop's
// bounded queue rather than stalling the producer.
func (m *AcquisitionManager) pump(loop *acquisition.Loop) {
	defer m.wg.Done()

	for {
		select {
		case r := <-loop.Readings():
			select {
			case m.distributor <- r:
			case <-m.ctx.Done():
				return
			}
		case <-m.ctx.Done():
			return
		}
	}
}

// StopAcquisition stops every running loop and closes the voltage sources.
func (m *AcquisitionManager) StopAcquisition() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, device := range m.devices {
		device.Loop.Stop()
		if err := device.Source.Close(); err != nil {
			m.logger.Errorf("error closing voltage source for device [%s]: %v", name, err)
		}
	}
}

// GetDevice retrieves a device by name. Returns nil if the device does not
// exist. Safe for concurrent use.
func (m *AcquisitionManager) GetDevice(name string) *acquisition.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.devices[name]
}

// DeviceNames returns the names of all managed devices.
func (m *AcquisitionManager) DeviceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.devices))
	for name := range m.devices {
		names = append(names, name)
	}
	return names
}
