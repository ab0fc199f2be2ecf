package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/driftwatch/sentinel/internal/apperr"
	"github.com/driftwatch/sentinel/internal/db"
	"github.com/driftwatch/sentinel/internal/notify"
	"github.com/go-chi/chi/v5"
)

type channelInput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Config   any    `json:"config"`
	IsActive *bool  `json:"is_active"`
}

func (in channelInput) validate() (configJSON string, verr *apperr.Error) {
	if in.Name == "" {
		return "", apperr.Invalid("name is required")
	}
	if in.Type == "" {
		in.Type = "webhook"
	}
	if !channelTypes[in.Type] {
		return "", apperr.Invalid("type must be webhook")
	}
	b, err := json.Marshal(in.Config)
	if err != nil {
		return "", apperr.Invalid("invalid config")
	}
	var cfg notify.ChannelConfig
	if err := json.Unmarshal(b, &cfg); err != nil || cfg.URL == "" {
		return "", apperr.Invalid("config.url is required")
	}
	return string(b), nil
}

func (h *adminHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.store.ListNotificationChannels()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

func (h *adminHandler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var in channelInput
	if verr := decodeJSON(r, &in); verr != nil {
		writeAppError(w, verr)
		return
	}
	configJSON, verr := in.validate()
	if verr != nil {
		writeAppError(w, verr)
		return
	}

	c := db.NotificationChannel{
		Name:       in.Name,
		Type:       "webhook",
		ConfigJSON: configJSON,
		IsActive:   in.IsActive == nil || *in.IsActive,
		CreatedAt:  time.Now().UTC().Unix(),
	}
	created, err := h.store.CreateNotificationChannel(c)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *adminHandler) UpdateChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.store.GetNotificationChannel(id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	var in channelInput
	if verr := decodeJSON(r, &in); verr != nil {
		writeAppError(w, verr)
		return
	}
	configJSON, verr := in.validate()
	if verr != nil {
		writeAppError(w, verr)
		return
	}

	existing.Name = in.Name
	existing.ConfigJSON = configJSON
	if in.IsActive != nil {
		existing.IsActive = *in.IsActive
	}
	if err := h.store.UpdateNotificationChannel(existing); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (h *adminHandler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteNotificationChannel(id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestChannel sends a synthetic monitor.test event through the same signed
// send path the dispatcher uses (signing included). It bypasses the
// delivery dedup index entirely: no delivery row is written, so a failed
// test send never collides with a real event.
func (h *adminHandler) TestChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ch, err := h.store.GetNotificationChannel(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	cfg, perr := notify.ParseChannelConfig(ch.ConfigJSON)
	if perr != nil {
		writeAppError(w, apperr.Internalf("channel has invalid config"))
		return
	}

	now := time.Now().UTC().Unix()
	payload := notify.Payload{
		Event:     "monitor.test",
		EventID:   fmt.Sprintf("test:%s:%d", id, now),
		Timestamp: now,
		Monitor:   notify.PayloadMonitor{ID: "test", Name: "Test Monitor", Type: "http", Target: "https://example.com"},
		State:     notify.PayloadState{Status: "up"},
	}
	body, _ := json.Marshal(payload)

	status, sendErr := h.notify.SendTest(cfg, body)
	if sendErr != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "http_status": status, "error": sendErr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "http_status": status})
}
