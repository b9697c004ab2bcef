package restserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/chrissnell/rangesensor/internal/acquisition"
	"github.com/chrissnell/rangesensor/internal/sensor"
	"github.com/gorilla/mux"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{controller: ctrl}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.controller.logger.Errorf("error encoding response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// deviceFromRequest resolves the {device} path variable to a running device.
// Writes a 404 and returns nil when the name is unknown.
func (h *Handlers) deviceFromRequest(w http.ResponseWriter, req *http.Request) *acquisition.Device {
	name := mux.Vars(req)["device"]
	device := h.controller.devices.GetDevice(name)
	if device == nil {
		h.writeError(w, http.StatusNotFound, "unknown device: "+name)
	}
	return device
}

// GetDevices lists the names of all managed devices.
func (h *Handlers) GetDevices(w http.ResponseWriter, req *http.Request) {
	names := h.controller.devices.DeviceNames()
	if names == nil {
		names = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"devices": names})
}

// GetStatistics returns summary statistics for one device's recent readings.
func (h *Handlers) GetStatistics(w http.ResponseWriter, req *http.Request) {
	device := h.deviceFromRequest(w, req)
	if device == nil {
		return
	}

	stats := device.Sensor.Statistics()
	if stats == nil {
		h.writeError(w, http.StatusNotFound, "no readings recorded yet")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// GetRecentReadings returns the most recent cached readings, oldest first.
// Accepts an optional ?limit= query parameter.
func (h *Handlers) GetRecentReadings(w http.ResponseWriter, req *http.Request) {
	limit := 0
	if l := req.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	readings := h.controller.cache.Recent(limit)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(readings),
		"readings": readings,
	})
}

// GetCalibration returns the device's calibration table.
func (h *Handlers) GetCalibration(w http.ResponseWriter, req *http.Request) {
	device := h.deviceFromRequest(w, req)
	if device == nil {
		return
	}

	model := device.Sensor.Calibration()
	points := model.Points()
	if points == nil {
		points = []sensor.CalibrationPoint{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"calibrated": model.Calibrated(),
		"points":     points,
	})
}

type calibrationPointRequest struct {
	DistanceCM float64 `json:"distance"`
}

// AddCalibrationPoint measures the voltage at a known distance and adds it to
// the calibration table. Refused while the acquisition loop is running since
// both would contend for the voltage source.
func (h *Handlers) AddCalibrationPoint(w http.ResponseWriter, req *http.Request) {
	device := h.deviceFromRequest(w, req)
	if device == nil {
		return
	}

	var body calibrationPointRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if device.Loop.Running() {
		h.writeError(w, http.StatusConflict, "acquisition is running; stop it before calibrating")
		return
	}

	voltage, stdev, err := device.Sensor.CalibratePoint(req.Context(), body.DistanceCM)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"distance":   body.DistanceCM,
		"voltage":    voltage,
		"std":        stdev,
		"calibrated": device.Sensor.Calibration().Calibrated(),
	})
}

// ClearCalibration discards all calibration points, reverting the device to
// the analytic distance curve.
func (h *Handlers) ClearCalibration(w http.ResponseWriter, req *http.Request) {
	device := h.deviceFromRequest(w, req)
	if device == nil {
		return
	}

	device.Sensor.ClearCalibration()
	h.writeJSON(w, http.StatusOK, map[string]any{"calibrated": false})
}

// SaveCalibration persists the device's calibration table to its configured
// calibration file.
func (h *Handlers) SaveCalibration(w http.ResponseWriter, req *http.Request) {
	device := h.deviceFromRequest(w, req)
	if device == nil {
		return
	}

	if err := device.Sensor.SaveCalibration(); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// StartAcquisition starts the device's acquisition loop at its configured
// interval. Starting an already-running loop is a no-op.
func (h *Handlers) StartAcquisition(w http.ResponseWriter, req *http.Request) {
	device := h.deviceFromRequest(w, req)
	if device == nil {
		return
	}

	device.Loop.Start(h.controller.ctx, device.Interval)
	h.writeJSON(w, http.StatusOK, device.Loop.Status())
}

// StopAcquisition stops the device's acquisition loop. Stopping an idle loop
// is a no-op.
func (h *Handlers) StopAcquisition(w http.ResponseWriter, req *http.Request) {
	device := h.deviceFromRequest(w, req)
	if device == nil {
		return
	}

	device.Loop.Stop()
	h.writeJSON(w, http.StatusOK, device.Loop.Status())
}

// GetAcquisitionStatus returns the state of the device's acquisition session.
func (h *Handlers) GetAcquisitionStatus(w http.ResponseWriter, req *http.Request) {
	device := h.deviceFromRequest(w, req)
	if device == nil {
		return
	}

	h.writeJSON(w, http.StatusOK, device.Loop.Status())
}
