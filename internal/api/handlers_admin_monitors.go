package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/driftwatch/sentinel/internal/apperr"
	"github.com/driftwatch/sentinel/internal/config"
	"github.com/driftwatch/sentinel/internal/db"
	"github.com/driftwatch/sentinel/internal/notify"
	"github.com/driftwatch/sentinel/internal/scheduler"
	"github.com/go-chi/chi/v5"
)

// adminHandler groups the admin write-API handlers of spec §4.10/§6 behind
// the bearer-token middleware. One struct, one store reference — the
// teacher's handlers_crud.go shape, generalized to this spec's entities.
type adminHandler struct {
	store  *db.Store
	cfg    *config.Config
	notify *notify.Service
}

func decodeJSON(r *http.Request, dst any) *apperr.Error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Invalid("malformed request body: " + err.Error())
	}
	return nil
}

func (h *adminHandler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	monitors, err := h.store.ListMonitors()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, monitors)
}

func (h *adminHandler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	var in monitorInput
	if verr := decodeJSON(r, &in); verr != nil {
		writeAppError(w, verr)
		return
	}
	headers, expected, verr := in.validate()
	if verr != nil {
		writeAppError(w, verr)
		return
	}

	now := time.Now().UTC().Unix()
	m := db.Monitor{
		Name:                     in.Name,
		Type:                     in.Type,
		Target:                   in.Target,
		IntervalSec:              in.IntervalSec,
		TimeoutMS:                in.TimeoutMS,
		IsActive:                 in.IsActive == nil || *in.IsActive,
		CreatedAt:                now,
		UpdatedAt:                now,
		HTTPMethod:               in.HTTPMethod,
		HTTPHeaders:              headers,
		HTTPBody:                 in.HTTPBody,
		ExpectedStatus:           expected,
		ResponseKeyword:          in.ResponseKeyword,
		ResponseForbiddenKeyword: in.ResponseForbiddenKeyword,
	}
	created, err := h.store.CreateMonitor(m)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *adminHandler) UpdateMonitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.store.GetMonitor(id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	var in monitorInput
	if verr := decodeJSON(r, &in); verr != nil {
		writeAppError(w, verr)
		return
	}
	headers, expected, verr := in.validate()
	if verr != nil {
		writeAppError(w, verr)
		return
	}

	existing.Name = in.Name
	existing.Type = in.Type
	existing.Target = in.Target
	existing.IntervalSec = in.IntervalSec
	existing.TimeoutMS = in.TimeoutMS
	existing.HTTPMethod = in.HTTPMethod
	existing.HTTPHeaders = headers
	existing.HTTPBody = in.HTTPBody
	existing.ExpectedStatus = expected
	existing.ResponseKeyword = in.ResponseKeyword
	existing.ResponseForbiddenKeyword = in.ResponseForbiddenKeyword
	existing.UpdatedAt = time.Now().UTC().Unix()

	if err := h.store.UpdateMonitor(existing); err != nil {
		writeAppError(w, err)
		return
	}
	if in.IsActive != nil {
		if err := h.store.SetMonitorActive(id, *in.IsActive, existing.UpdatedAt); err != nil {
			writeAppError(w, err)
			return
		}
		existing.IsActive = *in.IsActive
	}
	writeJSON(w, http.StatusOK, existing)
}

func (h *adminHandler) DeleteMonitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteMonitor(id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PauseMonitor and ResumeMonitor implement spec §4.10's pause/resume
// contract: pausing prevents scheduler selection but never closes an
// ongoing outage implicitly; resuming clears the paused marker back to
// unknown so the next tick re-probes from scratch.
func (h *adminHandler) PauseMonitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetMonitor(id); err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.store.SetMonitorPaused(id, true); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (h *adminHandler) ResumeMonitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetMonitor(id); err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.store.SetMonitorPaused(id, false); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unknown"})
}

// TestMonitor runs one ad hoc probe against the monitor's current config
// without persisting a CheckResult or advancing its state — an operator
// dry-run distinct from the scheduler's tick-driven checks.
func (h *adminHandler) TestMonitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mon, err := h.store.GetMonitor(id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(mon.TimeoutMS)*time.Millisecond+time.Second)
	defer cancel()

	outcome := scheduler.RunProbe(ctx, mon)
	writeJSON(w, http.StatusOK, outcome)
}
