package api

import (
	"net/http"
	"strconv"

	"github.com/driftwatch/sentinel/internal/apperr"
)

// settingsKeys are the operator-tunable overrides carried in the generic
// settings(key,value) table (SPEC_FULL §4, teacher's store_settings.go
// pattern), layered over config.Config's environment defaults.
var settingsKeys = []string{
	"probe_concurrency",
	"flap_f",
	"flap_s",
	"snapshot_max_age_seconds",
	"snapshot_refresh_seconds",
}

// GetSettings returns the effective settings: stored overrides where
// present, falling back to the process config defaults.
func (h *adminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	stored, err := h.store.ListSettings()
	if err != nil {
		writeAppError(w, err)
		return
	}

	out := map[string]int{
		"probe_concurrency":        h.cfg.ProbeConcurrency,
		"flap_f":                   h.cfg.FlapF,
		"flap_s":                   h.cfg.FlapS,
		"snapshot_max_age_seconds": h.cfg.SnapshotMaxAgeSeconds,
		"snapshot_refresh_seconds": h.cfg.SnapshotRefreshSeconds,
	}
	for _, key := range settingsKeys {
		if v, ok := stored[key]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				out[key] = n
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateSettings accepts a partial map of the known settings keys and
// persists each as a string override; unknown keys are rejected rather
// than silently ignored.
func (h *adminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in map[string]int
	if verr := decodeJSON(r, &in); verr != nil {
		writeAppError(w, verr)
		return
	}

	known := make(map[string]bool, len(settingsKeys))
	for _, k := range settingsKeys {
		known[k] = true
	}
	for k, v := range in {
		if !known[k] {
			writeAppError(w, apperr.Invalid("unknown setting: "+k))
			return
		}
		if v < 1 {
			writeAppError(w, apperr.Invalid(k+" must be >= 1"))
			return
		}
	}
	for k, v := range in {
		if err := h.store.SetSetting(k, strconv.Itoa(v)); err != nil {
			writeAppError(w, err)
			return
		}
	}
	h.GetSettings(w, r)
}

// ResetDatabase drops and recreates every table — a development/demo
// convenience carried from the teacher's db.Store.Reset(), gated behind
// the same bearer token as every other admin route.
func (h *adminHandler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
