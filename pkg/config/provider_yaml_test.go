package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
devices:
  - name: front-ranger
    type: ads1115
    enabled: true
    i2c_bus: "1"
    adc_channel: 0
    sample_count: 10
    poll_interval_ms: 250
    calibration_file: /var/lib/rangesensor/front.json
  - name: bench-sim
    type: sim
    enabled: false
    kalman_disabled: true
storage:
  csvlog:
    directory: /var/log/rangesensor
  timescaledb:
    connection_string: "host=localhost user=postgres dbname=rangesensor"
controllers:
  - type: rest
    rest:
      listen_addr: 127.0.0.1
      port: 8081
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o644))
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	p := NewYAMLProvider(writeTestConfig(t))

	cfg, err := p.LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, "front-ranger", cfg.Devices[0].Name)
	assert.Equal(t, "ads1115", cfg.Devices[0].Type)
	assert.True(t, cfg.Devices[0].Enabled)
	assert.Equal(t, "1", cfg.Devices[0].I2CBus)
	assert.Equal(t, 250, cfg.Devices[0].PollIntervalMs)
	assert.Equal(t, "/var/lib/rangesensor/front.json", cfg.Devices[0].CalibrationFile)

	assert.False(t, cfg.Devices[1].Enabled)
	assert.True(t, cfg.Devices[1].KalmanDisabled)

	require.NotNil(t, cfg.Storage.CSVLog)
	assert.Equal(t, "/var/log/rangesensor", cfg.Storage.CSVLog.Directory)
	require.NotNil(t, cfg.Storage.TimescaleDB)
	assert.Contains(t, cfg.Storage.TimescaleDB.ConnectionString, "dbname=rangesensor")

	require.Len(t, cfg.Controllers, 1)
	assert.Equal(t, "rest", cfg.Controllers[0].Type)
	require.NotNil(t, cfg.Controllers[0].RESTServer)
	assert.Equal(t, "127.0.0.1", cfg.Controllers[0].RESTServer.ListenAddr)
	assert.Equal(t, 8081, cfg.Controllers[0].RESTServer.Port)
}

func TestYAMLProviderGetDevice(t *testing.T) {
	p := NewYAMLProvider(writeTestConfig(t))

	device, err := p.GetDevice("bench-sim")
	require.NoError(t, err)
	assert.Equal(t, "sim", device.Type)

	_, err = p.GetDevice("missing")
	assert.Error(t, err)
}

func TestYAMLProviderMissingFile(t *testing.T) {
	p := NewYAMLProvider(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := p.LoadConfig()
	assert.Error(t, err)
}

func TestYAMLProviderIsReadOnly(t *testing.T) {
	p := NewYAMLProvider("config.yaml")
	assert.True(t, p.IsReadOnly())
	assert.NoError(t, p.Close())
}
