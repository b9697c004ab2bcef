package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	devices, err := s.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to load devices: %w", err)
	}
	config.Devices = devices

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	return config, nil
}

// GetDevices returns all configured devices from the devices table
func (s *SQLiteProvider) GetDevices() ([]DeviceData, error) {
	rows, err := s.db.Query(`
		SELECT name, COALESCE(type, ''), enabled,
		       COALESCE(i2c_bus, ''), COALESCE(adc_channel, 0),
		       COALESCE(serial_device, ''), COALESCE(baud, 0),
		       COALESCE(sample_count, 0), COALESCE(poll_interval_ms, 0),
		       COALESCE(calibration_file, ''), COALESCE(kalman_disabled, 0)
		FROM devices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []DeviceData
	for rows.Next() {
		var d DeviceData
		err := rows.Scan(&d.Name, &d.Type, &d.Enabled, &d.I2CBus, &d.ADCChannel,
			&d.SerialDevice, &d.Baud, &d.SampleCount, &d.PollIntervalMs,
			&d.CalibrationFile, &d.KalmanDisabled)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device row: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// GetDevice returns a single device by name
func (s *SQLiteProvider) GetDevice(name string) (*DeviceData, error) {
	devices, err := s.GetDevices()
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

// GetStorageConfig returns the storage configuration from the storage_configs table
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	rows, err := s.db.Query(`
		SELECT backend_type, COALESCE(directory, ''), COALESCE(connection_string, '')
		FROM storage_configs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	storage := &StorageData{}
	for rows.Next() {
		var backendType, directory, connString string
		if err := rows.Scan(&backendType, &directory, &connString); err != nil {
			return nil, fmt.Errorf("failed to scan storage config row: %w", err)
		}

		switch backendType {
		case "csvlog":
			storage.CSVLog = &CSVLogData{Directory: directory}
		case "timescaledb":
			storage.TimescaleDB = &TimescaleDBData{ConnectionString: connString}
		}
	}
	return storage, rows.Err()
}

// GetControllers returns all configured controllers from the controllers table
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	rows, err := s.db.Query(`
		SELECT type, COALESCE(listen_addr, ''), COALESCE(port, 0)
		FROM controllers`)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var c ControllerData
		var listenAddr string
		var port int
		if err := rows.Scan(&c.Type, &listenAddr, &port); err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}
		if c.Type == "rest" {
			c.RESTServer = &RESTServerData{ListenAddr: listenAddr, Port: port}
		}
		controllers = append(controllers, c)
	}
	return controllers, rows.Err()
}

// IsReadOnly returns false: the SQLite backend supports runtime edits
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the underlying database handle
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
