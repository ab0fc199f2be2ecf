package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/driftwatch/sentinel/internal/apperr"
	"github.com/driftwatch/sentinel/internal/db"
	"github.com/go-chi/chi/v5"
)

type incidentInput struct {
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	Impact     string   `json:"impact"`
	Message    string   `json:"message"`
	MonitorIDs []string `json:"monitor_ids"`
}

func (in incidentInput) validate(forCreate bool) *apperr.Error {
	if in.Title == "" {
		return apperr.Invalid("title is required")
	}
	if !incidentStatus[in.Status] {
		return apperr.Invalid("status must be one of investigating, identified, monitoring, resolved")
	}
	if forCreate && in.Status == "resolved" {
		return apperr.Invalid("cannot create an incident already resolved")
	}
	if !incidentImpact[in.Impact] {
		return apperr.Invalid("impact must be one of none, minor, major, critical")
	}
	if len(in.MonitorIDs) == 0 {
		return apperr.Invalid("at least one monitor_id is required")
	}
	return nil
}

func (h *adminHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
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

func (h *adminHandler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var in incidentInput
	if verr := decodeJSON(r, &in); verr != nil {
		writeAppError(w, verr)
		return
	}
	if verr := in.validate(true); verr != nil {
		writeAppError(w, verr)
		return
	}

	inc := db.Incident{
		Title:      in.Title,
		Status:     in.Status,
		Impact:     in.Impact,
		Message:    in.Message,
		StartedAt:  time.Now().UTC().Unix(),
		MonitorIDs: in.MonitorIDs,
	}
	created, err := h.store.CreateIncident(inc)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *adminHandler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.store.GetIncident(id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	var in incidentInput
	if verr := decodeJSON(r, &in); verr != nil {
		writeAppError(w, verr)
		return
	}
	if verr := in.validate(false); verr != nil {
		writeAppError(w, verr)
		return
	}

	existing.Title = in.Title
	existing.Status = in.Status
	existing.Impact = in.Impact
	existing.Message = in.Message
	if err := h.store.UpdateIncident(existing); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (h *adminHandler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteIncident(id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type incidentUpdateInput struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *adminHandler) CreateIncidentUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetIncident(id); err != nil {
		writeAppError(w, err)
		return
	}

	var in incidentUpdateInput
	if verr := decodeJSON(r, &in); verr != nil {
		writeAppError(w, verr)
		return
	}
	if in.Message == "" {
		writeAppError(w, apperr.Invalid("message is required"))
		return
	}
	if in.Status != "" && !incidentStatus[in.Status] {
		writeAppError(w, apperr.Invalid("status must be one of investigating, identified, monitoring, resolved"))
		return
	}

	u, err := h.store.CreateIncidentUpdate(db.IncidentUpdate{
		IncidentID: id,
		Status:     in.Status,
		Message:    in.Message,
		CreatedAt:  time.Now().UTC().Unix(),
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	if in.Status != "" {
		if inc, err := h.store.GetIncident(id); err == nil {
			inc.Status = in.Status
			_ = h.store.UpdateIncident(inc)
		}
	}
	writeJSON(w, http.StatusCreated, u)
}

// ResolveIncident implements spec §3/§4.10/R3: idempotent on "already
// resolved" — a second call returns the existing resolved_at rather than
// erroring or writing a duplicate update.
func (h *adminHandler) ResolveIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resolvedAt, err := h.store.ResolveIncident(id, time.Now().UTC().Unix(), "Resolved.")
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resolved_at": resolvedAt})
}
