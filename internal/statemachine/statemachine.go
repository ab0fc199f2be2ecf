// Package statemachine implements the per-monitor status transition rules
// of spec §4.3: given a previous MonitorState and a probe CheckOutcome, it
// computes the next status, whether it changed, and what the scheduler
// should do to the outage row. It is a pure function over plain values so
// it can be tested without a database.
package statemachine

import "github.com/driftwatch/sentinel/internal/probe"

type Status string

const (
	StatusUp          Status = "up"
	StatusDown        Status = "down"
	StatusMaintenance Status = "maintenance"
	StatusPaused      Status = "paused"
	StatusUnknown     Status = "unknown"
)

type OutageAction string

const (
	OutageOpen   OutageAction = "open"
	OutageClose  OutageAction = "close"
	OutageUpdate OutageAction = "update"
	OutageNone   OutageAction = "none"
)

// Previous is the subset of MonitorState the transition needs as input.
// A nil *Previous (or zero Status) models "no prior state row".
type Previous struct {
	Status               Status
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastError            string
}

// Result is the computed next state plus the action the scheduler takes.
type Result struct {
	Status               Status
	Changed              bool
	OutageAction         OutageAction
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastError            string
}

// Thresholds holds the configurable flap-dampening constants F (consecutive
// failures required to open an outage) and S (consecutive successes
// required to close one). Spec leaves these as global constants, default
// F=S=1.
type Thresholds struct {
	F int
	S int
}

// Next computes the transition for one observed outcome.
func Next(prev *Previous, outcome probe.Outcome, th Thresholds) Result {
	if prev == nil {
		prev = &Previous{Status: StatusUnknown}
	}
	f := th.F
	if f < 1 {
		f = 1
	}
	s := th.S
	if s < 1 {
		s = 1
	}

	switch outcome.Status {
	case probe.StatusDown:
		failures := prev.ConsecutiveFailures + 1
		res := Result{
			ConsecutiveFailures:  failures,
			ConsecutiveSuccesses: 0,
			LastError:            outcome.Error,
		}
		wasUpUnknownOrNone := prev.Status == StatusUp || prev.Status == StatusUnknown || prev.Status == ""
		switch {
		case wasUpUnknownOrNone && failures >= f:
			res.Status = StatusDown
			res.Changed = true
			res.OutageAction = OutageOpen
		case wasUpUnknownOrNone:
			// Below the flap-dampening threshold: keep reporting the
			// previous status while consecutive_failures accumulates.
			res.Status = prev.Status
			res.Changed = false
			res.OutageAction = OutageNone
		case prev.Status == StatusDown:
			res.Status = StatusDown
			res.Changed = false
			res.OutageAction = OutageUpdate
		default:
			// prev in {maintenance, paused}: not explicitly covered by
			// the source rules, which only name {up, unknown, null} and
			// {down}. Treated as a down transition so no check result is
			// silently dropped.
			res.Status = StatusDown
			res.Changed = prev.Status != StatusDown
			if res.Changed {
				res.OutageAction = OutageOpen
			} else {
				res.OutageAction = OutageUpdate
			}
		}
		return res

	case probe.StatusUp:
		successes := prev.ConsecutiveSuccesses + 1
		res := Result{
			ConsecutiveFailures:  0,
			ConsecutiveSuccesses: successes,
		}
		if prev.Status == StatusDown && successes >= s {
			res.Status = StatusUp
			res.Changed = true
			res.OutageAction = OutageClose
			return res
		}
		res.Status = StatusUp
		res.Changed = prev.Status != StatusUp
		res.OutageAction = OutageNone
		return res

	default: // probe.StatusUnknown — configuration error discovered at probe time
		return Result{
			Status:               StatusUnknown,
			Changed:              prev.Status != StatusUnknown,
			OutageAction:         OutageNone,
			ConsecutiveFailures:  prev.ConsecutiveFailures,
			ConsecutiveSuccesses: prev.ConsecutiveSuccesses,
			LastError:            prev.LastError,
		}
	}
}
