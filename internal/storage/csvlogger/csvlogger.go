// Package csvlogger appends readings to a per-session CSV file. It is the
// strict logging path: the acquisition producer calls StoreReading
// synchronously inside its own iteration, so every reading taken lands on
// disk even when the hand-off queue behind the distributor drops under
// backpressure.
package csvlogger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/chrissnell/rangesensor/internal/log"
	"github.com/chrissnell/rangesensor/internal/types"
)

// header matches the column schema of the reference logger so existing
// analysis tooling keeps working.
var header = []string{
	"timestamp", "elapsed_time", "distance_cm", "distance_raw_cm",
	"voltage_v", "voltage_std", "kalman_p", "temperature_c",
}

// Storage holds the configuration for a CSV file logging backend
type Storage struct {
	dir string

	// mu serializes rows; multiple device loops share one log file.
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// New creates the log directory if needed and opens a timestamped log file
// for this session.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create log directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("sensor_log_%s.csv", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create log file %s: %w", path, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("could not write CSV header: %w", err)
	}
	writer.Flush()

	log.Infof("CSV logger writing to %s", path)
	return &Storage{dir: dir, file: file, writer: writer}, nil
}

// StoreReading appends one reading to the CSV log and flushes it to disk
// before returning. Safe for concurrent use.
func (c *Storage) StoreReading(r types.Reading) error {
	row := []string{
		r.Timestamp.Format(time.RFC3339Nano),
		formatFloat(r.ElapsedTime),
		formatFloat(r.DistanceCM),
		formatFloat(r.DistanceRawCM),
		formatFloat(r.VoltageV),
		formatFloat(r.VoltageStdV),
		formatFloat(r.FilterCovariance),
		formatFloat(r.TemperatureC),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writer.Write(row); err != nil {
		return err
	}
	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes any buffered rows and closes the log file.
func (c *Storage) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	return c.file.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
