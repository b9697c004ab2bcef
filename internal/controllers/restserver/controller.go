// Package restserver exposes the sensor pipeline over HTTP: statistics,
// recent readings, calibration management, acquisition session control, and
// a live distance chart.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/chrissnell/rangesensor/internal/acquisition"
	"github.com/chrissnell/rangesensor/internal/log"
	"github.com/chrissnell/rangesensor/internal/storage/memcache"
	"github.com/chrissnell/rangesensor/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DeviceRegistry provides access to the running sensor devices by name.
type DeviceRegistry interface {
	GetDevice(name string) *acquisition.Device
	DeviceNames() []string
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	devices    DeviceRegistry
	cache      *memcache.Storage
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, devices DeviceRegistry, cache *memcache.Storage, logger *zap.SugaredLogger) (*Controller, error) {
	if devices == nil {
		return nil, fmt.Errorf("REST server requires a device registry")
	}
	if cache == nil {
		return nil, fmt.Errorf("REST server requires a reading cache")
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		devices:    devices,
		cache:      cache,
		logger:     logger,
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	ctrl.handlers = NewHandlers(ctrl)

	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/devices", c.handlers.GetDevices).Methods(http.MethodGet)
	router.HandleFunc("/api/readings/recent", c.handlers.GetRecentReadings).Methods(http.MethodGet)

	router.HandleFunc("/api/devices/{device}/statistics", c.handlers.GetStatistics).Methods(http.MethodGet)
	router.HandleFunc("/api/devices/{device}/calibration", c.handlers.GetCalibration).Methods(http.MethodGet)
	router.HandleFunc("/api/devices/{device}/calibration/point", c.handlers.AddCalibrationPoint).Methods(http.MethodPost)
	router.HandleFunc("/api/devices/{device}/calibration/clear", c.handlers.ClearCalibration).Methods(http.MethodPost)
	router.HandleFunc("/api/devices/{device}/calibration/save", c.handlers.SaveCalibration).Methods(http.MethodPost)
	router.HandleFunc("/api/devices/{device}/acquisition/start", c.handlers.StartAcquisition).Methods(http.MethodPost)
	router.HandleFunc("/api/devices/{device}/acquisition/stop", c.handlers.StopAcquisition).Methods(http.MethodPost)
	router.HandleFunc("/api/devices/{device}/acquisition/status", c.handlers.GetAcquisitionStatus).Methods(http.MethodGet)

	router.HandleFunc("/live", c.handlers.ServeLiveChart).Methods(http.MethodGet)

	return router
}
