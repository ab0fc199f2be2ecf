package scheduler

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/driftwatch/sentinel/internal/db"
	"github.com/driftwatch/sentinel/internal/notify"
	"github.com/driftwatch/sentinel/internal/statemachine"
)

type testDiscard struct{}

func (testDiscard) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *log.Logger { return log.New(testDiscard{}, "", 0) }

func newSchedulerTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.NewStore(db.NewTestConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newScheduler(store *db.Store) *Scheduler {
	notifySvc := notify.NewService(store, testLogger())
	notifySvc.Start()
	return &Scheduler{
		Store:        store,
		Notify:       notifySvc,
		Logger:       testLogger(),
		Thresholds:   statemachine.Thresholds{F: 1, S: 1},
		Concurrency:  5,
		LeaseSeconds: 55,
		HolderPrefix: "test",
	}
}

func TestTickProbesDueMonitorAndOpensOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newSchedulerTestStore(t)
	mon, err := store.CreateMonitor(db.Monitor{
		Name: "m", Type: "http", Target: srv.URL, IntervalSec: 60, TimeoutMS: 2000,
		IsActive: true, CreatedAt: 0, UpdatedAt: 0,
	})
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}

	s := newScheduler(store)
	if err := s.Tick(context.Background(), 600); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	state, err := store.GetMonitorState(mon.ID)
	if err != nil {
		t.Fatalf("GetMonitorState: %v", err)
	}
	if state.Status != "down" {
		t.Errorf("Status = %q, want down", state.Status)
	}

	outage, err := store.GetActiveOutage(mon.ID)
	if err != nil {
		t.Fatalf("GetActiveOutage: %v", err)
	}
	if outage == nil {
		t.Fatal("expected an ongoing outage to be opened")
	}
}

func TestTickSkipsWhenLeaseHeld(t *testing.T) {
	store := newSchedulerTestStore(t)
	mon, err := store.CreateMonitor(db.Monitor{
		Name: "m", Type: "tcp", Target: "127.0.0.1:1", IntervalSec: 60, TimeoutMS: 500,
		IsActive: true, CreatedAt: 0, UpdatedAt: 0,
	})
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}

	ok, err := store.AcquireLock(leaseName, "other-holder", 600, 55)
	if err != nil || !ok {
		t.Fatalf("seed AcquireLock: ok=%v err=%v", ok, err)
	}

	s := newScheduler(store)
	if err := s.Tick(context.Background(), 600); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if _, err := store.GetMonitorState(mon.ID); err != nil {
		t.Fatalf("GetMonitorState: %v", err)
	}
	checks, err := store.GetMonitorChecks(mon.ID, 10)
	if err != nil {
		t.Fatalf("GetMonitorChecks: %v", err)
	}
	if len(checks) != 0 {
		t.Errorf("expected no checks while lease held, got %d", len(checks))
	}
}

func TestTickSkipsMonitorNotYetDue(t *testing.T) {
	store := newSchedulerTestStore(t)
	mon, err := store.CreateMonitor(db.Monitor{
		Name: "m", Type: "tcp", Target: "127.0.0.1:1", IntervalSec: 3600, TimeoutMS: 500,
		IsActive: true, CreatedAt: 600, UpdatedAt: 600,
	})
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}

	s := newScheduler(store)
	if err := s.Tick(context.Background(), 600); err != nil {
		t.Fatalf("Tick (first): %v", err)
	}
	// Second tick one minute later is still within the 3600s interval, so the
	// monitor must not be re-probed (ListDueMonitors excludes it).
	if err := s.Tick(context.Background(), 660); err != nil {
		t.Fatalf("Tick (second): %v", err)
	}

	checks, err := store.GetMonitorChecks(mon.ID, 10)
	if err != nil {
		t.Fatalf("GetMonitorChecks: %v", err)
	}
	if len(checks) != 1 {
		t.Errorf("expected exactly 1 check after two ticks within the interval, got %d", len(checks))
	}
}
