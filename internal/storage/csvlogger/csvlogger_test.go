package csvlogger

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/rangesensor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesLogFileWithHeader(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)
	defer s.Close()

	files, err := filepath.Glob(filepath.Join(dir, "sensor_log_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, header, rows[0])
}

func TestNewCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	s, err := New(dir)
	require.NoError(t, err)
	defer s.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStoreReadingAppendsRow(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)
	defer s.Close()

	ts := time.Date(2026, 8, 30, 12, 0, 0, 500000000, time.UTC)
	reading := types.Reading{
		Timestamp:        ts,
		ElapsedTime:      1.5,
		DistanceCM:       14.2,
		DistanceRawCM:    14.8,
		VoltageV:         0.82,
		VoltageStdV:      0.01,
		FilterCovariance: 0.05,
		TemperatureC:     25.0,
	}
	require.NoError(t, s.StoreReading(reading))
	require.NoError(t, s.StoreReading(reading))

	files, err := filepath.Glob(filepath.Join(dir, "sensor_log_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	row := rows[1]
	assert.Equal(t, ts.Format(time.RFC3339Nano), row[0])
	assert.Equal(t, "1.5", row[1])
	assert.Equal(t, "14.2", row[2])
	assert.Equal(t, "14.8", row[3])
	assert.Equal(t, "0.82", row[4])
	assert.Equal(t, "0.01", row[5])
	assert.Equal(t, "0.05", row[6])
	assert.Equal(t, "25", row[7])
}

func TestStoreReadingFromConcurrentProducers(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)

	// Several device loops share one log file; no row may be lost or torn.
	const producers, perProducer = 4, 25
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, s.StoreReading(types.Reading{
					Timestamp:   time.Now(),
					ElapsedTime: float64(n*perProducer + j),
				}))
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, s.Close())

	files, err := filepath.Glob(filepath.Join(dir, "sensor_log_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1+producers*perProducer)
}
