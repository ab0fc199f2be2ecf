package statuspage

import (
	"testing"

	"github.com/driftwatch/sentinel/internal/db"
)

func newStatuspageTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.NewStore(db.NewTestConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createMonitorWithState(t *testing.T, store *db.Store, name, status string, lastCheckedAt *int64, intervalSec int) db.Monitor {
	t.Helper()
	mon, err := store.CreateMonitor(db.Monitor{
		Name: name, Type: "http", Target: "https://example.com",
		IntervalSec: intervalSec, TimeoutMS: 1000, IsActive: true, CreatedAt: 0, UpdatedAt: 0,
	})
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}
	checkedAt := int64(0)
	if lastCheckedAt != nil {
		checkedAt = *lastCheckedAt
	}
	latency := int64(50)
	outcomeStatus := "up"
	if status == "down" {
		outcomeStatus = "down"
	}
	action := "none"
	if status == "down" {
		action = "open"
	}
	if err := store.PersistCheck(db.PersistCheckInput{
		MonitorID: mon.ID, CheckedAt: checkedAt, Status: outcomeStatus, LatencyMs: &latency,
		NextStatus: status, NextConsecutiveFailures: 0, NextConsecutiveSuccesses: 1,
		OutageAction: action,
	}); err != nil {
		t.Fatalf("PersistCheck: %v", err)
	}
	return mon
}

func TestBuildOverallStatusDownWins(t *testing.T) {
	store := newStatuspageTestStore(t)
	now := int64(1000)
	createMonitorWithState(t, store, "ok", "up", &now, 60)
	createMonitorWithState(t, store, "bad", "down", &now, 60)

	resp, err := Build(store, now)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if resp.OverallStatus != "down" {
		t.Errorf("OverallStatus = %q, want down", resp.OverallStatus)
	}
	if resp.Banner.Source != "monitors" || resp.Banner.Status != "major_outage" {
		t.Errorf("Banner = %+v, want monitors/major_outage (1/2 down >= 0.3)", resp.Banner)
	}
}

func TestBuildStaleMonitorIsUnknown(t *testing.T) {
	store := newStatuspageTestStore(t)
	now := int64(10000)
	old := now - 1000 // far beyond 2*interval_sec=120
	createMonitorWithState(t, store, "stale", "up", &old, 60)

	resp, err := Build(store, now)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(resp.Monitors) != 1 {
		t.Fatalf("expected 1 monitor, got %d", len(resp.Monitors))
	}
	mv := resp.Monitors[0]
	if !mv.IsStale {
		t.Error("expected IsStale=true")
	}
	if mv.DisplayStatus != "unknown" {
		t.Errorf("DisplayStatus = %q, want unknown", mv.DisplayStatus)
	}
	if mv.LastLatencyMs != nil {
		t.Error("expected LastLatencyMs suppressed to nil when stale")
	}
}

func TestBuildIncidentBannerTakesPriority(t *testing.T) {
	store := newStatuspageTestStore(t)
	now := int64(1000)
	mon := createMonitorWithState(t, store, "ok", "up", &now, 60)

	if _, err := store.CreateIncident(db.Incident{
		Title: "db outage", Status: "investigating", Impact: "critical",
		StartedAt: 500, MonitorIDs: []string{mon.ID},
	}); err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}

	resp, err := Build(store, now)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if resp.Banner.Source != "incident" || resp.Banner.Status != "major_outage" {
		t.Errorf("Banner = %+v, want incident/major_outage", resp.Banner)
	}
	if len(resp.Incidents) != 1 {
		t.Errorf("expected 1 incident in response, got %d", len(resp.Incidents))
	}
}

func TestBuildMaintenanceSuppressesStaleness(t *testing.T) {
	store := newStatuspageTestStore(t)
	now := int64(1000)
	mon, err := store.CreateMonitor(db.Monitor{
		Name: "m", Type: "http", Target: "https://example.com",
		IntervalSec: 60, TimeoutMS: 1000, IsActive: true, CreatedAt: 0, UpdatedAt: 0,
	})
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}
	if _, err := store.CreateMaintenanceWindow(db.MaintenanceWindow{
		Title: "upgrade", StartsAt: 0, EndsAt: 2000, CreatedAt: 0, MonitorIDs: []string{mon.ID},
	}); err != nil {
		t.Fatalf("CreateMaintenanceWindow: %v", err)
	}

	resp, err := Build(store, now)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(resp.Monitors) != 1 {
		t.Fatalf("expected 1 monitor, got %d", len(resp.Monitors))
	}
	mv := resp.Monitors[0]
	if mv.DisplayStatus != "maintenance" {
		t.Errorf("DisplayStatus = %q, want maintenance", mv.DisplayStatus)
	}
	if mv.IsStale {
		t.Error("expected IsStale=false under maintenance even with no checks")
	}
}
