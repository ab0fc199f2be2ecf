package rollup

import (
	"log"
	"testing"

	"github.com/driftwatch/sentinel/internal/db"
)

func testLogger() *log.Logger {
	return log.New(testDiscard{}, "", 0)
}

type testDiscard struct{}

func (testDiscard) Write(p []byte) (int, error) { return len(p), nil }

func newRollupTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.NewStore(db.NewTestConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func insertUpCheck(t *testing.T, store *db.Store, monitorID string, checkedAt, latencyMs int64) {
	t.Helper()
	l := latencyMs
	err := store.PersistCheck(db.PersistCheckInput{
		MonitorID:               monitorID,
		CheckedAt:               checkedAt,
		Status:                  "up",
		LatencyMs:               &l,
		NextStatus:              "up",
		NextConsecutiveFailures: 0,
		NextConsecutiveSuccesses: 1,
		OutageAction:            "none",
	})
	if err != nil {
		t.Fatalf("PersistCheck: %v", err)
	}
}

// TestComputeDayUnknownRegion grounds spec §8 scenario 3: a monitor with
// interval=60 checked at t=0 and next at t=240 leaves [120,240) unknown
// within the day.
func TestComputeDayUnknownRegion(t *testing.T) {
	store := newRollupTestStore(t)

	mon, err := store.CreateMonitor(db.Monitor{
		Name: "m", Type: "http", Target: "https://example.com",
		IntervalSec: 60, TimeoutMS: 1000, IsActive: true, CreatedAt: 0, UpdatedAt: 0,
	})
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}

	insertUpCheck(t, store, mon.ID, 0, 10)
	insertUpCheck(t, store, mon.ID, 240, 10)

	row, err := ComputeDay(store, mon, 0, 86400)
	if err != nil {
		t.Fatalf("ComputeDay: %v", err)
	}
	if row == nil {
		t.Fatal("expected a rollup row")
	}
	if row.UnknownSec < 120 {
		t.Errorf("UnknownSec = %d, want >= 120", row.UnknownSec)
	}
	if row.ChecksTotal != 2 || row.ChecksUp != 2 {
		t.Errorf("ChecksTotal=%d ChecksUp=%d, want 2/2", row.ChecksTotal, row.ChecksUp)
	}
}

func TestComputeDayPercentiles(t *testing.T) {
	store := newRollupTestStore(t)

	mon, err := store.CreateMonitor(db.Monitor{
		Name: "m", Type: "http", Target: "https://example.com",
		IntervalSec: 60, TimeoutMS: 1000, IsActive: true, CreatedAt: 0, UpdatedAt: 0,
	})
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}

	for i, lat := range []int64{10, 20, 30, 40} {
		insertUpCheck(t, store, mon.ID, int64(i)*60, lat)
	}

	row, err := ComputeDay(store, mon, 0, 86400)
	if err != nil {
		t.Fatalf("ComputeDay: %v", err)
	}
	if row.AvgLatencyMs == nil || *row.AvgLatencyMs != 25 {
		t.Errorf("AvgLatencyMs = %v, want 25", row.AvgLatencyMs)
	}
	if row.P50 == nil || *row.P50 != 20 {
		t.Errorf("P50 = %v, want 20", row.P50)
	}
	if row.P95 == nil || *row.P95 != 40 {
		t.Errorf("P95 = %v, want 40", row.P95)
	}
}

func TestRunIdempotent(t *testing.T) {
	store := newRollupTestStore(t)
	logger := testLogger()

	mon, err := store.CreateMonitor(db.Monitor{
		Name: "m", Type: "http", Target: "https://example.com",
		IntervalSec: 60, TimeoutMS: 1000, IsActive: true, CreatedAt: 0, UpdatedAt: 0,
	})
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}
	insertUpCheck(t, store, mon.ID, 0, 10)

	if err := Run(store, logger, "worker-a", 90000, 0, 600); err != nil {
		t.Fatalf("Run (first): %v", err)
	}
	first, err := store.GetDailyRollup(mon.ID, 0)
	if err != nil || first == nil {
		t.Fatalf("GetDailyRollup: %v, nil=%v", err, first == nil)
	}

	// A second run with a fresh holder and later lease-acquisition time
	// (simulating the lease having expired) must reproduce the same row (R1).
	if err := Run(store, logger, "worker-b", 90000+601, 0, 600); err != nil {
		t.Fatalf("Run (second): %v", err)
	}
	second, err := store.GetDailyRollup(mon.ID, 0)
	if err != nil || second == nil {
		t.Fatalf("GetDailyRollup: %v, nil=%v", err, second == nil)
	}
	if *first.AvgLatencyMs != *second.AvgLatencyMs || first.TotalSec != second.TotalSec {
		t.Errorf("rerun produced a different rollup: %+v vs %+v", first, second)
	}
}
