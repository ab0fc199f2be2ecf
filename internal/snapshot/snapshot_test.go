package snapshot

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/driftwatch/sentinel/internal/db"
)

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newSnapshotTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.NewStore(db.NewTestConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetBuildsOnMiss(t *testing.T) {
	store := newSnapshotTestStore(t)
	c := NewCache(store, testLogger())

	res, err := c.Get(context.Background(), 1000)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.Stale {
		t.Error("expected a freshly-built response, not stale")
	}
	if res.AgeSeconds != 0 {
		t.Errorf("AgeSeconds = %d, want 0", res.AgeSeconds)
	}

	row, ok, err := store.ReadSnapshot("status")
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected the build to have written the snapshot")
	}
	if row.GeneratedAt != 1000 {
		t.Errorf("GeneratedAt = %d, want 1000", row.GeneratedAt)
	}
}

func TestGetServesFreshHitWithoutRebuild(t *testing.T) {
	store := newSnapshotTestStore(t)
	c := NewCache(store, testLogger())

	if _, err := c.Get(context.Background(), 1000); err != nil {
		t.Fatalf("Get (seed): %v", err)
	}

	res, err := c.Get(context.Background(), 1010)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.AgeSeconds != 10 {
		t.Errorf("AgeSeconds = %d, want 10", res.AgeSeconds)
	}
}

func TestGetRebuildsPastMaxAge(t *testing.T) {
	store := newSnapshotTestStore(t)
	c := NewCache(store, testLogger())

	if _, err := c.Get(context.Background(), 1000); err != nil {
		t.Fatalf("Get (seed): %v", err)
	}

	res, err := c.Get(context.Background(), 1000+MaxAge+1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.AgeSeconds != 0 {
		t.Errorf("AgeSeconds = %d, want 0 (rebuilt)", res.AgeSeconds)
	}
}

func TestCacheControlCapsAtRefreshAt(t *testing.T) {
	c := NewCache(newSnapshotTestStore(t), testLogger())
	got := c.CacheControl(0)
	want := "public, max-age=30, stale-while-revalidate=30, stale-if-error=30"
	if got != want {
		t.Errorf("CacheControl(0) = %q, want %q", got, want)
	}
}

func TestCacheControlMatchesSpecExample(t *testing.T) {
	c := NewCache(newSnapshotTestStore(t), testLogger())
	got := c.CacheControl(5)
	want := "public, max-age=30, stale-while-revalidate=25, stale-if-error=25"
	if got != want {
		t.Errorf("CacheControl(5) = %q, want %q", got, want)
	}
}

func TestCacheControlShrinksNearMaxAge(t *testing.T) {
	c := NewCache(newSnapshotTestStore(t), testLogger())
	got := c.CacheControl(50)
	want := "public, max-age=10, stale-while-revalidate=0, stale-if-error=0"
	if got != want {
		t.Errorf("CacheControl(50) = %q, want %q", got, want)
	}
}

func TestCacheControlHonorsSettingsOverride(t *testing.T) {
	store := newSnapshotTestStore(t)
	if err := store.SetSetting("snapshot_max_age_seconds", "120"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := store.SetSetting("snapshot_refresh_seconds", "60"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	c := NewCache(store, testLogger())
	got := c.CacheControl(0)
	want := "public, max-age=60, stale-while-revalidate=60, stale-if-error=60"
	if got != want {
		t.Errorf("CacheControl(0) with overrides = %q, want %q", got, want)
	}
}
