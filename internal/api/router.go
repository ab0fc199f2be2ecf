// Package api implements the HTTP surface of spec §6: public read routes
// serving the cached status snapshot and analytics, and bearer-token
// protected admin routes performing the validated writes of spec §4.10.
// Grounded on the teacher's router.go (chi.Mux, middleware.Logger/
// Recoverer/RealIP, a Router wrapper type) generalized to the spec's
// route set and single static-token auth model instead of the teacher's
// session/SSO handlers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/driftwatch/sentinel/internal/apperr"
	"github.com/driftwatch/sentinel/internal/config"
	"github.com/driftwatch/sentinel/internal/db"
	"github.com/driftwatch/sentinel/internal/notify"
	"github.com/driftwatch/sentinel/internal/snapshot"
	"github.com/driftwatch/sentinel/internal/timeutil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps bundles everything a handler needs, built once in main and passed
// to NewRouter — the teacher wires its handlers the same way, one struct
// per concern constructed against the shared store.
type Deps struct {
	Store    *db.Store
	Snapshot *snapshot.Cache
	Notify   *notify.Service
	Config   *config.Config
}

// NewRouter builds the HTTP router serving both the public JSON API and
// the bearer-token protected admin API.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	publicH := &publicHandler{store: d.Store, snapshot: d.Snapshot}
	adminH := &adminHandler{store: d.Store, cfg: d.Config, notify: d.Notify}

	r.Get("/healthz", Healthz)
	r.Get("/readyz", Readyz(d.Store))

	r.Route("/public", func(pr chi.Router) {
		pr.Get("/status", publicH.GetStatus)
		pr.Get("/monitors/{id}/latency", publicH.GetMonitorLatency)
		pr.Get("/monitors/{id}/uptime", publicH.GetMonitorUptime)
		pr.Get("/monitors/{id}/day-context", publicH.GetMonitorDayContext)
		pr.Get("/analytics/uptime", publicH.GetAnalyticsUptime)
		pr.Get("/incidents", publicH.GetIncidents)
		pr.Get("/maintenance-windows", publicH.GetMaintenanceWindows)
	})

	// Docs are mounted on their own unauthenticated sub-router: chi requires
	// middleware registered before routes on a given Mux, and the swagger UI
	// is meant to be reachable without a token, same as the teacher's own
	// public health routes.
	r.Route("/admin/docs", func(dr chi.Router) {
		mountDocs(dr)
	})

	r.Route("/admin", func(ar chi.Router) {
		limiter := NewIPRateLimiter(5, 20)
		ar.Use(RateLimitMiddleware(limiter))
		ar.Use(BearerAuth(d.Config.AdminToken))

		ar.Route("/monitors", func(mr chi.Router) {
			mr.Get("/", adminH.ListMonitors)
			mr.Post("/", adminH.CreateMonitor)
			mr.Patch("/{id}", adminH.UpdateMonitor)
			mr.Delete("/{id}", adminH.DeleteMonitor)
			mr.Post("/{id}/pause", adminH.PauseMonitor)
			mr.Post("/{id}/resume", adminH.ResumeMonitor)
			mr.Post("/{id}/test", adminH.TestMonitor)
		})

		ar.Route("/notification-channels", func(cr chi.Router) {
			cr.Get("/", adminH.ListChannels)
			cr.Post("/", adminH.CreateChannel)
			cr.Patch("/{id}", adminH.UpdateChannel)
			cr.Delete("/{id}", adminH.DeleteChannel)
			cr.Post("/{id}/test", adminH.TestChannel)
		})

		ar.Route("/incidents", func(ir chi.Router) {
			ir.Get("/", adminH.ListIncidents)
			ir.Post("/", adminH.CreateIncident)
			ir.Patch("/{id}", adminH.UpdateIncident)
			ir.Delete("/{id}", adminH.DeleteIncident)
			ir.Post("/{id}/updates", adminH.CreateIncidentUpdate)
			ir.Patch("/{id}/resolve", adminH.ResolveIncident)
		})

		ar.Route("/maintenance-windows", func(wr chi.Router) {
			wr.Get("/", adminH.ListMaintenanceWindows)
			wr.Post("/", adminH.CreateMaintenanceWindow)
			wr.Patch("/{id}", adminH.UpdateMaintenanceWindow)
			wr.Delete("/{id}", adminH.DeleteMaintenanceWindow)
		})

		ar.Route("/analytics", func(anr chi.Router) {
			anr.Get("/overview", adminH.GetAnalyticsOverview)
			anr.Get("/monitors/{id}", adminH.GetMonitorAnalytics)
			anr.Get("/monitors/{id}/outages", adminH.GetMonitorOutages)
		})

		ar.Get("/settings", adminH.GetSettings)
		ar.Patch("/settings", adminH.UpdateSettings)
		ar.Post("/reset", adminH.ResetDatabase)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeAppError translates any error into the taxonomy envelope of spec §7.
// A raw (non-taxonomy) error is logged-shaped as INTERNAL without leaking
// its text to the client.
func writeAppError(w http.ResponseWriter, err error) {
	if err == db.ErrNotFound {
		err = apperr.NotFoundf("not found")
	}
	if err == db.ErrAlreadyResolved {
		err = apperr.Conflictf("incident already resolved")
	}
	if err == db.ErrOutageExists {
		err = apperr.Conflictf("outage already open")
	}
	code := apperr.CodeOf(err)
	status := apperr.StatusOf(err)
	msg := err.Error()
	if _, ok := err.(*apperr.Error); !ok {
		msg = "internal error"
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    string(code),
			"message": msg,
		},
	})
}

func rangeSecondsOrDefault(q string, def string) (int64, error) {
	if q == "" {
		q = def
	}
	seconds, ok := timeutil.RangeSeconds(q)
	if !ok {
		return 0, apperr.Invalid("invalid range")
	}
	return seconds, nil
}
