// Package memcache is a storage backend that keeps a bounded in-memory ring
// of recent readings for the REST server and live plot to serve without
// touching a database.
package memcache

import (
	"context"
	"sync"

	"github.com/chrissnell/rangesensor/internal/log"
	"github.com/chrissnell/rangesensor/internal/types"
)

// Storage keeps the most recent readings in memory.
type Storage struct {
	mu       sync.RWMutex
	capacity int
	readings []types.Reading
}

// New creates a cache holding up to capacity readings.
func New(capacity int) *Storage {
	if capacity < 1 {
		capacity = 500
	}
	return &Storage{capacity: capacity}
}

// StartStorageEngine creates a goroutine loop to receive readings and cache
// them in memory
func (m *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Reading {
	log.Info("starting in-memory reading cache...")
	readingChan := make(chan types.Reading, 10)
	go m.processMetrics(ctx, wg, readingChan)
	return readingChan
}

func (m *Storage) processMetrics(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.Reading) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			m.add(r)
		case <-ctx.Done():
			log.Info("cancellation request received. Cancelling reading cache.")
			return
		}
	}
}

func (m *Storage) add(r types.Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, r)
	if len(m.readings) > m.capacity {
		m.readings = m.readings[1:]
	}
}

// Recent returns up to n of the most recent readings, oldest first. n <= 0
// returns everything cached.
func (m *Storage) Recent(n int) []types.Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 || n > len(m.readings) {
		n = len(m.readings)
	}
	out := make([]types.Reading, n)
	copy(out, m.readings[len(m.readings)-n:])
	return out
}

// Len returns the number of cached readings.
func (m *Storage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.readings)
}
