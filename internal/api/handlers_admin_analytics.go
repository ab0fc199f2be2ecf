package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/driftwatch/sentinel/internal/analytics"
	"github.com/driftwatch/sentinel/internal/apperr"
	"github.com/go-chi/chi/v5"
)

// GetAnalyticsOverview implements the admin mirror of spec §4.9's overview
// query (24h live, 7d from the same interval algebra).
func (h *adminHandler) GetAnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	windowSec, err := rangeSecondsOrDefault(r.URL.Query().Get("range"), "24h")
	if err != nil {
		writeAppError(w, err)
		return
	}
	overview, berr := analytics.BuildOverview(h.store, time.Now().UTC().Unix(), windowSec)
	if berr != nil {
		writeAppError(w, berr)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// GetMonitorAnalytics serves the 24h live view or the 7/30/90d rollup-
// backed view, chosen by the range query param (spec §4.9).
func (h *adminHandler) GetMonitorAnalytics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetMonitor(id); err != nil {
		writeAppError(w, err)
		return
	}

	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "24h"
	}
	now := time.Now().UTC().Unix()

	if rng == "24h" {
		live, err := analytics.BuildLive24h(h.store, id, now)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, live)
		return
	}

	windowSec, ok := rangeToDaySeconds(rng)
	if !ok {
		writeAppError(w, apperr.Invalid("range must be one of 24h, 7d, 30d, 90d"))
		return
	}
	rangeEnd := (now / 86400) * 86400
	rangeStart := rangeEnd - windowSec
	win, err := analytics.BuildRollupWindow(h.store, id, rangeStart, rangeEnd)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, win)
}

func rangeToDaySeconds(rng string) (int64, bool) {
	switch rng {
	case "7d":
		return 7 * 86400, true
	case "30d":
		return 30 * 86400, true
	case "90d":
		return 90 * 86400, true
	default:
		return 0, false
	}
}

// GetMonitorOutages implements spec §4.9's keyset-paginated outage listing.
func (h *adminHandler) GetMonitorOutages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetMonitor(id); err != nil {
		writeAppError(w, err)
		return
	}

	now := time.Now().UTC().Unix()
	rangeStart := now - 90*86400
	if v := r.URL.Query().Get("range_start_at"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			rangeStart = n
		}
	}
	rangeEnd := now
	if v := r.URL.Query().Get("range_end_at"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			rangeEnd = n
		}
	}
	var beforeID int64
	if v := r.URL.Query().Get("cursor"); v != "" {
		beforeID, _ = strconv.ParseInt(v, 10, 64)
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	outages, err := analytics.ListOutages(h.store, id, rangeStart, rangeEnd, beforeID, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outages)
}
