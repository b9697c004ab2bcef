package restserver

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// defaultChartPoints bounds the live chart payload when no limit is given.
const defaultChartPoints = 200

// ServeLiveChart renders an HTML line chart of recently cached readings,
// filtered and smoothed distance side by side. Query params:
//   - device (optional) restricts the chart to one sensor's readings
//   - limit (optional; default 200) caps the number of plotted points
func (h *Handlers) ServeLiveChart(w http.ResponseWriter, req *http.Request) {
	limit := defaultChartPoints
	if l := req.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 5000 {
			limit = parsed
		}
	}
	deviceFilter := req.URL.Query().Get("device")

	readings := h.controller.cache.Recent(0)
	if deviceFilter != "" {
		filtered := readings[:0:0]
		for _, r := range readings {
			if r.SensorName == deviceFilter {
				filtered = append(filtered, r)
			}
		}
		readings = filtered
	}
	if len(readings) > limit {
		readings = readings[len(readings)-limit:]
	}

	if len(readings) == 0 {
		h.writeError(w, http.StatusNotFound, "no cached readings to plot")
		return
	}

	timestamps := make([]string, 0, len(readings))
	filtered := make([]opts.LineData, 0, len(readings))
	raw := make([]opts.LineData, 0, len(readings))
	for _, r := range readings {
		timestamps = append(timestamps, r.Timestamp.Format("15:04:05.000"))
		filtered = append(filtered, opts.LineData{Value: r.DistanceCM})
		raw = append(raw, opts.LineData{Value: r.DistanceRawCM})
	}

	subtitle := fmt.Sprintf("points=%d", len(readings))
	if deviceFilter != "" {
		subtitle = fmt.Sprintf("device=%s %s", deviceFilter, subtitle)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Distance Readings", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Distance Readings", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "distance (cm)"}),
	)

	line.SetXAxis(timestamps).
		AddSeries("filtered", filtered).
		AddSeries("raw", raw).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
