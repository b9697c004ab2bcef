// Package timescaledb is a storage backend that persists readings to a
// TimescaleDB (or plain PostgreSQL) database via GORM.
package timescaledb

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/rangesensor/internal/log"
	"github.com/chrissnell/rangesensor/internal/types"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	db *gorm.DB
}

// New connects to the database and prepares the readings table. A
// hypertable is created when the TimescaleDB extension is available; on
// plain PostgreSQL that step is skipped with a warning.
func New(ctx context.Context, connectionString string) (*Storage, error) {
	dbLogger := gormlogger.New(
		zap.NewStdLog(log.GetZapLogger()),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Warn,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}

	log.Info("creating readings table...")
	if err := db.WithContext(ctx).Exec(createTableSQL).Error; err != nil {
		log.Warn("warning: could not create readings table")
		return nil, err
	}

	if err := db.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
		// Not fatal: plain PostgreSQL lacks create_hypertable.
		log.Warn("could not create hypertable (TimescaleDB extension missing?); continuing with a plain table:", err)
	}

	return &Storage{db: db}, nil
}

// StartStorageEngine creates a goroutine loop to receive readings and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Reading {
	log.Info("starting TimescaleDB storage engine...")
	readingChan := make(chan types.Reading, 10)
	go t.processMetrics(ctx, wg, readingChan)
	return readingChan
}

func (t *Storage) processMetrics(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.Reading) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			if err := t.StoreReading(r); err != nil {
				log.Error("could not store reading:", err)
			}
		case <-ctx.Done():
			log.Info("cancellation request received. Cancelling readings processor.")
			return
		}
	}
}

// StoreReading stores a reading value in TimescaleDB
func (t *Storage) StoreReading(r types.Reading) error {
	return t.db.Create(&r).Error
}
