package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/rangesensor/internal/acquisition"
	"github.com/chrissnell/rangesensor/internal/log"
	"github.com/chrissnell/rangesensor/internal/managers"
	"github.com/chrissnell/rangesensor/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, &wg, a.configProvider)
	if err != nil {
		return err
	}

	// Initialize the acquisition manager. When a CSV log is configured the
	// loops persist each reading through it synchronously.
	var store acquisition.ReadingStore
	if storageManager.CSVLog != nil {
		store = storageManager.CSVLog
	}
	am, err := managers.NewAcquisitionManager(ctx, &wg, a.configProvider, storageManager.ReadingDistributor, store, a.logger)
	if err != nil {
		return err
	}
	if err := am.StartAcquisition(); err != nil {
		return err
	}

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, a.configProvider, am, storageManager, a.logger)
	if err != nil {
		return err
	}
	err = cm.StartControllers()
	if err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Stop producers before cancelling the consumers behind them
	am.StopAcquisition()

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()

	if storageManager.CSVLog != nil {
		if err := storageManager.CSVLog.Close(); err != nil {
			log.Error("could not close CSV log file:", err)
		}
	}

	log.Info("shutdown complete")

	return nil
}
