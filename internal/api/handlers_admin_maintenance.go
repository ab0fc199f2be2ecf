package api

import (
	"net/http"
	"time"

	"github.com/driftwatch/sentinel/internal/apperr"
	"github.com/driftwatch/sentinel/internal/db"
	"github.com/go-chi/chi/v5"
)

type maintenanceInput struct {
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	StartsAt   int64    `json:"starts_at"`
	EndsAt     int64    `json:"ends_at"`
	MonitorIDs []string `json:"monitor_ids"`
}

func (in maintenanceInput) validate() *apperr.Error {
	if in.Title == "" {
		return apperr.Invalid("title is required")
	}
	if in.StartsAt >= in.EndsAt {
		return apperr.Invalid("starts_at must be before ends_at")
	}
	if len(in.MonitorIDs) == 0 {
		return apperr.Invalid("at least one monitor_id is required")
	}
	return nil
}

func (h *adminHandler) ListMaintenanceWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := h.store.ListMaintenanceWindows()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, windows)
}

func (h *adminHandler) CreateMaintenanceWindow(w http.ResponseWriter, r *http.Request) {
	var in maintenanceInput
	if verr := decodeJSON(r, &in); verr != nil {
		writeAppError(w, verr)
		return
	}
	if verr := in.validate(); verr != nil {
		writeAppError(w, verr)
		return
	}

	mw := db.MaintenanceWindow{
		Title:      in.Title,
		Message:    in.Message,
		StartsAt:   in.StartsAt,
		EndsAt:     in.EndsAt,
		CreatedAt:  time.Now().UTC().Unix(),
		MonitorIDs: in.MonitorIDs,
	}
	created, err := h.store.CreateMaintenanceWindow(mw)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *adminHandler) UpdateMaintenanceWindow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.store.GetMaintenanceWindow(id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	var in maintenanceInput
	if verr := decodeJSON(r, &in); verr != nil {
		writeAppError(w, verr)
		return
	}
	if verr := in.validate(); verr != nil {
		writeAppError(w, verr)
		return
	}

	existing.Title = in.Title
	existing.Message = in.Message
	existing.StartsAt = in.StartsAt
	existing.EndsAt = in.EndsAt
	if err := h.store.UpdateMaintenanceWindow(existing); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (h *adminHandler) DeleteMaintenanceWindow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteMaintenanceWindow(id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
