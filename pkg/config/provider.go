// Package config provides configuration data sources for the rangesensor daemon.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDevices() ([]DeviceData, error)
	GetDevice(name string) (*DeviceData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Devices     []DeviceData     `json:"devices" yaml:"devices"`
	Storage     StorageData      `json:"storage,omitempty" yaml:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty" yaml:"controllers,omitempty"`
}

// DeviceData holds configuration specific to a distance sensor device.
// Type selects the voltage source: "ads1115" (I²C ADC), "serial" (serial
// ADC bridge), or "sim" (simulated sensor for testing).
type DeviceData struct {
	Name            string `json:"name" yaml:"name"`
	Type            string `json:"type,omitempty" yaml:"type,omitempty"`
	Enabled         bool   `json:"enabled" yaml:"enabled"`
	I2CBus          string `json:"i2c_bus,omitempty" yaml:"i2c_bus,omitempty"`
	ADCChannel      int    `json:"adc_channel,omitempty" yaml:"adc_channel,omitempty"`
	SerialDevice    string `json:"serial_device,omitempty" yaml:"serial_device,omitempty"`
	Baud            int    `json:"baud,omitempty" yaml:"baud,omitempty"`
	SampleCount     int    `json:"sample_count,omitempty" yaml:"sample_count,omitempty"`
	PollIntervalMs  int    `json:"poll_interval_ms,omitempty" yaml:"poll_interval_ms,omitempty"`
	CalibrationFile string `json:"calibration_file,omitempty" yaml:"calibration_file,omitempty"`
	KalmanDisabled  bool   `json:"kalman_disabled,omitempty" yaml:"kalman_disabled,omitempty"`
}

// StorageData holds the configuration for the various storage backends
type StorageData struct {
	CSVLog      *CSVLogData      `json:"csvlog,omitempty" yaml:"csvlog,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
}

// CSVLogData holds configuration for the CSV file logger backend
type CSVLogData struct {
	Directory string `json:"directory" yaml:"directory"`
}

// TimescaleDBData holds configuration for the TimescaleDB/PostgreSQL backend
type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

// ControllerData holds the configuration for controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty" yaml:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty" yaml:"rest,omitempty"`
}

// RESTServerData holds configuration for the REST server controller
type RESTServerData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	Port       int    `json:"port" yaml:"port"`
}
