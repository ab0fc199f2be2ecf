// Package snapshot implements the public status cache of spec §4.8: a
// single-row freshness-bounded cache in front of the expensive status-page
// build (statuspage.Build), with stale-on-error fallback and background
// refresh triggers.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/driftwatch/sentinel/internal/db"
	"github.com/driftwatch/sentinel/internal/statuspage"
)

const (
	// MaxAge is the default hard freshness bound: a snapshot older than
	// this is treated as a miss. Overridable at runtime via the
	// snapshot_max_age_seconds row in the settings table (PATCH
	// /admin/settings).
	MaxAge = 60
	// RefreshAt is the default age at which a cache hit still triggers a
	// background rebuild so the next reader gets a fresher row.
	// Overridable via snapshot_refresh_seconds.
	RefreshAt = 30
	snapshotKey = "status"
)

// Result is what Get returns on a usable hit (fresh or tolerably stale).
type Result struct {
	Data       statuspage.Response
	AgeSeconds int64
	Stale      bool
}

// Cache wraps a Store with the read/write/refresh policy of §4.8. Background
// refreshes (triggered by aging hits) are serialized by a single in-flight
// flag so a burst of such readers starts only one rebuild; a cache miss
// rebuilds synchronously in each caller.
type Cache struct {
	store    *db.Store
	logger   *log.Logger
	refresh  chan struct{}
}

func NewCache(store *db.Store, logger *log.Logger) *Cache {
	return &Cache{
		store:   store,
		logger:  logger,
		refresh: make(chan struct{}, 1),
	}
}

// Get serves the cached snapshot if fresh enough, rebuilding synchronously
// on a miss and triggering a background refresh when the hit is aging
// (age >= RefreshAt). now is the caller's logical time.
func (c *Cache) Get(ctx context.Context, now int64) (Result, error) {
	maxAge := c.maxAge()
	refreshAt := c.refreshAt()

	row, ok, err := c.store.ReadSnapshot(snapshotKey)
	if err != nil {
		return Result{}, err
	}
	if ok {
		age := now - row.GeneratedAt
		if age < 0 {
			age = 0
		}
		if age <= maxAge {
			var resp statuspage.Response
			if err := json.Unmarshal([]byte(row.PayloadJSON), &resp); err != nil {
				return Result{}, fmt.Errorf("decode cached snapshot: %w", err)
			}
			if age >= refreshAt {
				c.triggerBackgroundRefresh(now)
			}
			return Result{Data: resp, AgeSeconds: age, Stale: false}, nil
		}
	}

	resp, buildErr := statuspage.Build(c.store, now)
	if buildErr != nil {
		if ok {
			// Stale-on-error fallback: serve the expired row rather than fail.
			var stale statuspage.Response
			if err := json.Unmarshal([]byte(row.PayloadJSON), &stale); err == nil {
				c.logger.Printf("snapshot rebuild failed, serving stale: %v", buildErr)
				return Result{Data: stale, AgeSeconds: now - row.GeneratedAt, Stale: true}, nil
			}
		}
		return Result{}, buildErr
	}

	if err := c.write(now, resp); err != nil {
		c.logger.Printf("write snapshot: %v", err)
	}
	return Result{Data: resp, AgeSeconds: 0, Stale: false}, nil
}

func (c *Cache) triggerBackgroundRefresh(now int64) {
	select {
	case c.refresh <- struct{}{}:
		go func() {
			defer func() { <-c.refresh }()
			if err := c.Refresh(context.Background()); err != nil {
				c.logger.Printf("background refresh: %v", err)
			}
		}()
	default:
		// A refresh is already in flight; this caller's trigger is redundant.
	}
}

// Refresh rebuilds and writes the snapshot unconditionally. It implements
// scheduler.SnapshotRefresher so the scheduler tick can call it directly
// after every probe batch (spec §4.4 step 7).
func (c *Cache) Refresh(ctx context.Context) error {
	now := time.Now().UTC().Unix()
	resp, err := statuspage.Build(c.store, now)
	if err != nil {
		return err
	}
	return c.write(now, resp)
}

func (c *Cache) write(now int64, resp statuspage.Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.store.WriteSnapshot(snapshotKey, resp.GeneratedAt, string(body), now)
}

// maxAge returns the operator-tunable freshness bound: the
// snapshot_max_age_seconds settings override if one has been persisted via
// PATCH /admin/settings, otherwise the MaxAge default.
func (c *Cache) maxAge() int64 {
	return settingOrDefault(c.store, "snapshot_max_age_seconds", MaxAge)
}

// refreshAt returns the operator-tunable background-refresh trigger age:
// the snapshot_refresh_seconds settings override if present, otherwise the
// RefreshAt default.
func (c *Cache) refreshAt() int64 {
	return settingOrDefault(c.store, "snapshot_refresh_seconds", RefreshAt)
}

func settingOrDefault(store *db.Store, key string, def int64) int64 {
	v, ok, err := store.GetSetting(key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// CacheControl derives the Cache-Control header value for a served
// response of the given age, per spec §4.8: max-age caps at RefreshAt (or
// whatever remains of MaxAge), with stale-while-revalidate/stale-if-error
// filling the remainder so max-age+swr never exceeds MaxAge. Both bounds
// are read live from the settings table so a PATCH /admin/settings change
// takes effect on the very next request.
func (c *Cache) CacheControl(ageSeconds int64) string {
	maxAgeBound := c.maxAge()
	refreshAtBound := c.refreshAt()

	remaining := maxAgeBound - ageSeconds
	if remaining < 0 {
		remaining = 0
	}
	maxAge := remaining
	if maxAge > refreshAtBound {
		maxAge = refreshAtBound
	}
	swr := remaining - maxAge
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d, stale-if-error=%d", maxAge, swr, swr)
}
