package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/driftwatch/sentinel/internal/analytics"
	"github.com/driftwatch/sentinel/internal/apperr"
	"github.com/driftwatch/sentinel/internal/db"
	"github.com/driftwatch/sentinel/internal/rollup"
	"github.com/driftwatch/sentinel/internal/snapshot"
	"github.com/driftwatch/sentinel/internal/timeutil"
	"github.com/go-chi/chi/v5"
)

// publicHandler serves the read-only public wire protocol of spec §6: the
// cached status snapshot and the analytics/incident/maintenance views that
// power the status page.
type publicHandler struct {
	store    *db.Store
	snapshot *snapshot.Cache
}

// GetStatus serves the cached public status snapshot (C7/C8), setting
// Cache-Control per spec §4.8.
func (h *publicHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Unix()
	result, err := h.snapshot.Get(r.Context(), now)
	if err != nil {
		writeAppError(w, apperr.Internalf("failed to build status"))
		return
	}
	w.Header().Set("Cache-Control", h.snapshot.CacheControl(result.AgeSeconds))
	writeJSON(w, http.StatusOK, result.Data)
}

// GetMonitorLatency implements `GET /public/monitors/{id}/latency?range=24h`.
// Only the 24h live window is defined for latency charts (spec §6); other
// range values are rejected.
func (h *publicHandler) GetMonitorLatency(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mon, err := h.store.GetMonitor(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "24h"
	}
	if rng != "24h" {
		writeAppError(w, apperr.Invalid("range must be 24h"))
		return
	}

	live, lerr := analytics.BuildLive24h(h.store, id, time.Now().UTC().Unix())
	if lerr != nil {
		writeAppError(w, lerr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"monitor":        mon.ID,
		"range":          rng,
		"range_start_at": live.RangeStart,
		"range_end_at":   live.RangeEnd,
		"avg_latency_ms": live.AvgLatencyMs,
		"p95_latency_ms": live.P95LatencyMs,
		"points":         live.Points,
	})
}

// GetMonitorUptime implements `GET /public/monitors/{id}/uptime?range=24h|7d|30d`.
func (h *publicHandler) GetMonitorUptime(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mon, err := h.store.GetMonitor(id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "24h"
	}
	now := time.Now().UTC().Unix()

	if rng == "24h" {
		rangeEnd := timeutil.FloorToMinute(now)
		rangeStart := rangeEnd - 86400
		row, err := rollup.ComputeDay(h.store, mon, rangeStart, rangeEnd)
		if err != nil {
			writeAppError(w, err)
			return
		}
		var totalSec, downtimeSec, uptimeSec int64
		if row != nil {
			totalSec, downtimeSec, uptimeSec = row.TotalSec, row.DowntimeSec, row.UptimeSec
		}
		uptimePct := 100.0
		if totalSec > 0 {
			uptimePct = 100.0 * float64(uptimeSec) / float64(totalSec)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"monitor":         id,
			"range":           rng,
			"range_start_at":  rangeStart,
			"range_end_at":    rangeEnd,
			"total_sec":       totalSec,
			"downtime_sec":    downtimeSec,
			"uptime_sec":      uptimeSec,
			"uptime_pct":      uptimePct,
		})
		return
	}

	windowSec, ok := timeutil.RangeSeconds(rng)
	if !ok || rng == "90d" {
		writeAppError(w, apperr.Invalid("range must be one of 24h, 7d, 30d"))
		return
	}
	rangeEnd := timeutil.UTCDayStart(now)
	rangeStart := rangeEnd - windowSec
	win, err := analytics.BuildRollupWindow(h.store, id, rangeStart, rangeEnd)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"monitor":         id,
		"range":           rng,
		"range_start_at":  win.RangeStart,
		"range_end_at":    win.RangeEnd,
		"total_sec":       win.TotalSec,
		"downtime_sec":    win.DowntimeSec,
		"uptime_sec":      win.UptimeSec,
		"uptime_pct":      win.UptimePct,
	})
}

// GetAnalyticsUptime implements `GET /public/analytics/uptime?range=30d|90d`:
// overall plus per-monitor rollup summaries.
func (h *publicHandler) GetAnalyticsUptime(w http.ResponseWriter, r *http.Request) {
	rng := r.URL.Query().Get("range")
	if rng != "30d" && rng != "90d" {
		writeAppError(w, apperr.Invalid("range must be 30d or 90d"))
		return
	}
	windowSec, _ := timeutil.RangeSeconds(rng)
	now := time.Now().UTC().Unix()
	rangeEnd := timeutil.UTCDayStart(now)
	rangeStart := rangeEnd - windowSec

	overview, err := analytics.BuildOverview(h.store, now, windowSec)
	if err != nil {
		writeAppError(w, err)
		return
	}

	monitors, err := h.store.ListActiveMonitors()
	if err != nil {
		writeAppError(w, err)
		return
	}
	perMonitor := make([]map[string]any, 0, len(monitors))
	for _, m := range monitors {
		win, werr := analytics.BuildRollupWindow(h.store, m.ID, rangeStart, rangeEnd)
		if werr != nil {
			writeAppError(w, werr)
			return
		}
		perMonitor = append(perMonitor, map[string]any{
			"monitor_id": m.ID,
			"name":       m.Name,
			"uptime_pct": win.UptimePct,
			"p50":        win.P50,
			"p95":        win.P95,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"range":    rng,
		"overall":  overview,
		"monitors": perMonitor,
	})
}

// GetIncidents implements `GET /public/incidents?limit=&cursor=&resolved_only=`.
func (h *publicHandler) GetIncidents(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	var cursor int64
	if v := r.URL.Query().Get("cursor"); v != "" {
		cursor, _ = strconv.ParseInt(v, 10, 64)
	}
	resolvedOnly := r.URL.Query().Get("resolved_only") == "true"

	incidents, err := h.store.ListIncidents(limit, cursor, resolvedOnly)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, incidents)
}

// GetMaintenanceWindows implements `GET /public/maintenance-windows`.
func (h *publicHandler) GetMaintenanceWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := h.store.ListMaintenanceWindows()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, windows)
}

// GetMonitorDayContext implements `GET /public/monitors/{id}/day-context?day_start_at=…`:
// the outage/downtime/unknown breakdown for one UTC day, in the shape the
// daily rollup persists: the stored rollup row when one exists, otherwise
// computed live for that day.
func (h *publicHandler) GetMonitorDayContext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mon, err := h.store.GetMonitor(id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	dayStartParam := r.URL.Query().Get("day_start_at")
	if dayStartParam == "" {
		writeAppError(w, apperr.Invalid("day_start_at is required"))
		return
	}
	dayStart, perr := strconv.ParseInt(dayStartParam, 10, 64)
	if perr != nil {
		writeAppError(w, apperr.Invalid("day_start_at must be a unix timestamp"))
		return
	}
	dayStart = timeutil.UTCDayStart(dayStart)
	dayEnd := dayStart + 86400

	if existing, rerr := h.store.GetDailyRollup(id, dayStart); rerr == nil && existing != nil {
		writeJSON(w, http.StatusOK, existing)
		return
	}

	row, cerr := rollup.ComputeDay(h.store, mon, dayStart, dayEnd)
	if cerr != nil {
		writeAppError(w, apperr.Internalf("failed to compute day context"))
		return
	}
	writeJSON(w, http.StatusOK, row)
}
