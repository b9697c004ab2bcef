package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var cfg ConfigData
	if err := yaml.Unmarshal(cfgFile, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing YAML config: %w", err)
	}

	y.config = &cfg
	return y.config, nil
}

// GetDevices returns all configured devices
func (y *YAMLProvider) GetDevices() ([]DeviceData, error) {
	cfg, err := y.cachedConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Devices, nil
}

// GetDevice returns a single device by name
func (y *YAMLProvider) GetDevice(name string) (*DeviceData, error) {
	devices, err := y.GetDevices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("device [%s] not found in configuration", name)
}

// GetStorageConfig returns the storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	cfg, err := y.cachedConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Storage, nil
}

// GetControllers returns all configured controllers
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	cfg, err := y.cachedConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Controllers, nil
}

// IsReadOnly returns true: YAML configuration is not editable at runtime
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for the YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

func (y *YAMLProvider) cachedConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}
	return y.LoadConfig()
}
