// Package scheduler implements the leased, concurrency-bounded check tick
// of spec §4.4: acquire a lease, select due monitors, dispatch probes with
// bounded concurrency, advance the per-monitor state machine, persist the
// result batch, and fan out notifications on observable transitions.
//
// Grounded on the teacher's uptime.Manager, but simplified from its
// continuous per-monitor worker-goroutine model to the spec's single
// leased tick over the due-monitor set; SSL-expiry tracking and flap
// notification machinery are intentionally not carried over.
package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/driftwatch/sentinel/internal/db"
	"github.com/driftwatch/sentinel/internal/notify"
	"github.com/driftwatch/sentinel/internal/probe"
	"github.com/driftwatch/sentinel/internal/statemachine"
)

const leaseName = "scheduler:tick"

// SnapshotRefresher rebuilds the cached public snapshot. Defined here
// rather than importing the snapshot package directly, so this package
// stays free of a dependency on the HTTP-facing cache layer; main.go wires
// the concrete implementation.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs one tick at a time against a store, a default flap-
// dampening threshold pair, and a default bounded probe concurrency — both
// overridable per tick by the settings table (flap_f, flap_s,
// probe_concurrency), so PATCH /admin/settings takes effect on the very
// next tick without a restart.
type Scheduler struct {
	Store        *db.Store
	Notify       *notify.Service
	Snapshot     SnapshotRefresher
	Logger       *log.Logger
	Thresholds   statemachine.Thresholds
	Concurrency  int
	LeaseSeconds int64
	HolderPrefix string
}

// Tick runs one scheduling pass at logical time now (unix seconds). It
// returns nil whenever the tick legitimately did nothing (lease not held),
// never as an error signal — per §4.4.2 this is best-effort and failures
// are isolated per monitor.
func (s *Scheduler) Tick(ctx context.Context, now int64) error {
	checkedAt := (now / 60) * 60

	holderID := s.HolderPrefix + "-" + time.Now().UTC().Format("150405.000000000")
	lease := s.LeaseSeconds
	if lease <= 0 {
		lease = 55
	}
	acquired, err := s.Store.AcquireLock(leaseName, holderID, now, lease)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}
	defer func() { _ = s.Store.ReleaseLock(leaseName, holderID) }()

	due, err := s.Store.ListDueMonitors(checkedAt)
	if err != nil {
		return err
	}

	maintained, err := s.Store.ActiveMaintenanceMonitorSet(now)
	if err != nil {
		return err
	}

	channels, err := s.Store.ListActiveNotificationChannels()
	if err != nil {
		return err
	}

	thresholds := s.effectiveThresholds()
	concurrency := s.effectiveConcurrency()

	s.dispatchAll(ctx, due, checkedAt, maintained, channels, thresholds, concurrency)

	if s.Snapshot != nil {
		if err := s.Snapshot.Refresh(ctx); err != nil {
			s.Logger.Printf("snapshot refresh: %v", err)
		}
	}
	return nil
}

// effectiveThresholds overlays the settings table's flap_f/flap_s onto the
// struct defaults, so an operator's PATCH /admin/settings is picked up on
// the next tick.
func (s *Scheduler) effectiveThresholds() statemachine.Thresholds {
	th := s.Thresholds
	if v, ok, err := s.Store.GetSetting("flap_f"); err == nil && ok {
		if n, perr := strconv.Atoi(v); perr == nil && n > 0 {
			th.F = n
		}
	}
	if v, ok, err := s.Store.GetSetting("flap_s"); err == nil && ok {
		if n, perr := strconv.Atoi(v); perr == nil && n > 0 {
			th.S = n
		}
	}
	return th
}

// effectiveConcurrency overlays the settings table's probe_concurrency onto
// the struct default, so an operator's PATCH /admin/settings is picked up
// on the next tick.
func (s *Scheduler) effectiveConcurrency() int {
	k := s.Concurrency
	if k <= 0 {
		k = 5
	}
	if v, ok, err := s.Store.GetSetting("probe_concurrency"); err == nil && ok {
		if n, perr := strconv.Atoi(v); perr == nil && n > 0 {
			k = n
		}
	}
	return k
}

func (s *Scheduler) dispatchAll(ctx context.Context, due []db.Monitor, checkedAt int64, maintained map[string]bool, channels []db.NotificationChannel, thresholds statemachine.Thresholds, concurrency int) {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, mon := range due {
		mon := mon
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					s.Logger.Printf("monitor %s panicked: %v", mon.ID, r)
				}
			}()
			s.checkOne(ctx, mon, checkedAt, maintained[mon.ID], channels, thresholds)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) checkOne(ctx context.Context, mon db.Monitor, checkedAt int64, inMaintenance bool, channels []db.NotificationChannel, thresholds statemachine.Thresholds) {
	outcome := RunProbe(ctx, mon)

	prevState, err := s.Store.GetMonitorState(mon.ID)
	var prev *statemachine.Previous
	if err == nil {
		prev = &statemachine.Previous{
			Status:               statemachine.Status(prevState.Status),
			ConsecutiveFailures:  prevState.ConsecutiveFailures,
			ConsecutiveSuccesses: prevState.ConsecutiveSuccesses,
			LastError:            prevState.LastError,
		}
	} else if err != db.ErrNotFound {
		s.Logger.Printf("monitor %s: get state: %v", mon.ID, err)
		return
	}

	result := statemachine.Next(prev, outcome, thresholds)

	if err := s.Store.PersistCheck(db.PersistCheckInput{
		MonitorID:                mon.ID,
		CheckedAt:                checkedAt,
		Status:                   string(outcome.Status),
		LatencyMs:                outcome.LatencyMs,
		HTTPStatus:               outcome.HTTPStatus,
		Error:                    outcome.Error,
		Attempt:                  outcome.Attempts,
		NextStatus:               string(result.Status),
		NextConsecutiveFailures:  result.ConsecutiveFailures,
		NextConsecutiveSuccesses: result.ConsecutiveSuccesses,
		NextLastError:            result.LastError,
		OutageAction:             string(result.OutageAction),
	}); err != nil {
		s.Logger.Printf("monitor %s: persist check: %v", mon.ID, err)
		return
	}

	if !result.Changed || inMaintenance {
		return
	}

	eventType := eventFor(prevStatus(prev), result.Status)
	if eventType == "" {
		return
	}

	eventKey := "monitor:" + mon.ID + ":" + eventType + ":" + strconv.FormatInt(checkedAt, 10)
	payload := notify.Payload{
		Event:     "monitor." + eventType,
		EventID:   eventKey,
		Timestamp: checkedAt,
		Monitor: notify.PayloadMonitor{
			ID: mon.ID, Name: mon.Name, Type: mon.Type, Target: mon.Target,
		},
		State: notify.PayloadState{
			Status:     string(result.Status),
			LatencyMs:  outcome.LatencyMs,
			HTTPStatus: outcome.HTTPStatus,
			Error:      outcome.Error,
		},
	}
	s.Notify.Enqueue(notify.Request{EventKey: eventKey, Channels: channels, Payload: payload})
}

func prevStatus(prev *statemachine.Previous) statemachine.Status {
	if prev == nil {
		return statemachine.StatusUnknown
	}
	return prev.Status
}

// eventFor implements spec §4.4 step 6d's event classification.
func eventFor(prev, next statemachine.Status) string {
	switch {
	case (prev == statemachine.StatusUp || prev == statemachine.StatusUnknown) && next == statemachine.StatusDown:
		return "down"
	case prev == statemachine.StatusDown && next == statemachine.StatusUp:
		return "up"
	default:
		return ""
	}
}

// RunProbe executes one HTTP or TCP probe against a monitor's current
// config under its timeout. Exported so the admin "test monitor" endpoint
// can reuse the exact same classification path as the scheduler tick.
func RunProbe(ctx context.Context, mon db.Monitor) probe.Outcome {
	timeout := time.Duration(mon.TimeoutMS) * time.Millisecond
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch mon.Type {
	case "tcp":
		return probe.RunTCP(pctx, probe.TCPInput{Target: mon.Target, TimeoutMS: mon.TimeoutMS})
	default:
		var headers map[string]string
		if mon.HTTPHeaders != "" {
			_ = json.Unmarshal([]byte(mon.HTTPHeaders), &headers)
		}
		var expected []int
		if mon.ExpectedStatus != "" {
			_ = json.Unmarshal([]byte(mon.ExpectedStatus), &expected)
		}
		method := mon.HTTPMethod
		if method == "" {
			method = "GET"
		}
		return probe.RunHTTP(pctx, probe.HTTPInput{
			URL:                      mon.Target,
			Method:                   method,
			Headers:                  headers,
			Body:                     mon.HTTPBody,
			TimeoutMS:                mon.TimeoutMS,
			ExpectedStatus:           expected,
			ResponseKeyword:          mon.ResponseKeyword,
			ResponseForbiddenKeyword: mon.ResponseForbiddenKeyword,
		})
	}
}
