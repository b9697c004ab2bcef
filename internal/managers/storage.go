package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/rangesensor/internal/log"
	"github.com/chrissnell/rangesensor/internal/storage"
	"github.com/chrissnell/rangesensor/internal/storage/csvlogger"
	"github.com/chrissnell/rangesensor/internal/storage/memcache"
	"github.com/chrissnell/rangesensor/internal/storage/timescaledb"
	"github.com/chrissnell/rangesensor/internal/types"
	"github.com/chrissnell/rangesensor/pkg/config"
)

// recentCacheSize bounds the in-memory reading cache serving the REST API.
const recentCacheSize = 500

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines            []StorageEngine
	ReadingDistributor chan types.Reading
	Cache              *memcache.Storage

	// CSVLog is the strict logger. It is not an engine behind the
	// distributor: the acquisition loops write to it synchronously so a
	// backed-up consumer cannot cost it readings.
	CSVLog *csvlogger.Storage
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing readings to the engine
type StorageEngine struct {
	Engine storage.StorageEngineInterface
	C      chan<- types.Reading
}

// NewStorageManager creates a StorageManager populated with all configured
// storage engines plus the in-memory cache that backs the REST server.
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider) (*StorageManager, error) {
	storageConfig, err := configProvider.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading storage configuration: %w", err)
	}

	s := &StorageManager{
		ReadingDistributor: make(chan types.Reading, 20),
		Cache:              memcache.New(recentCacheSize),
	}

	// The cache is always on: the REST server and live plot read from it.
	s.addEngine(ctx, wg, s.Cache)

	if storageConfig.CSVLog != nil {
		s.CSVLog, err = csvlogger.New(storageConfig.CSVLog.Directory)
		if err != nil {
			return nil, fmt.Errorf("could not add CSV logger storage backend: %w", err)
		}
	}

	if storageConfig.TimescaleDB != nil && storageConfig.TimescaleDB.ConnectionString != "" {
		engine, err := timescaledb.New(ctx, storageConfig.TimescaleDB.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
		s.addEngine(ctx, wg, engine)
	}

	// Start our reading distributor to fan received readings out to the
	// storage backends
	go s.startReadingDistributor(ctx, wg)

	return s, nil
}

func (s *StorageManager) addEngine(ctx context.Context, wg *sync.WaitGroup, engine storage.StorageEngineInterface) {
	se := StorageEngine{Engine: engine}
	se.C = engine.StartStorageEngine(ctx, wg)
	s.Engines = append(s.Engines, se)
}

// startReadingDistributor receives readings from the acquisition loops and
// fans them out to the various storage backends
func (s *StorageManager) startReadingDistributor(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-s.ReadingDistributor:
			for _, e := range s.Engines {
				e.C <- r
			}
		case <-ctx.Done():
			log.Info("cancellation request received. Cancelling reading distributor.")
			return
		}
	}
}
