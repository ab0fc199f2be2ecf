package statemachine

import (
	"testing"

	"github.com/driftwatch/sentinel/internal/probe"
)

func latency(ms int64) *int64 { return &ms }

func TestNext_DownThenUp(t *testing.T) {
	// Scenario 1 from the spec.
	th := Thresholds{F: 1, S: 1}

	down := probe.Outcome{Status: probe.StatusDown, Error: "timeout"}
	r1 := Next(nil, down, th)
	if r1.Status != StatusDown || !r1.Changed || r1.OutageAction != OutageOpen {
		t.Fatalf("first down observation: %+v", r1)
	}

	prev := &Previous{Status: r1.Status, ConsecutiveFailures: r1.ConsecutiveFailures, ConsecutiveSuccesses: r1.ConsecutiveSuccesses, LastError: r1.LastError}
	up := probe.Outcome{Status: probe.StatusUp, LatencyMs: latency(12), HTTPStatus: intp(200)}
	r2 := Next(prev, up, th)
	if r2.Status != StatusUp || !r2.Changed || r2.OutageAction != OutageClose {
		t.Fatalf("recovery observation: %+v", r2)
	}
}

func TestNext_RepeatedDownDoesNotReopen(t *testing.T) {
	th := Thresholds{F: 1, S: 1}
	prev := &Previous{Status: StatusDown, ConsecutiveFailures: 3, LastError: "timeout"}
	r := Next(prev, probe.Outcome{Status: probe.StatusDown, Error: "timeout"}, th)
	if r.Changed || r.OutageAction != OutageUpdate {
		t.Fatalf("expected update not open on repeated down: %+v", r)
	}
}

func TestNext_UpToUpNoChange(t *testing.T) {
	th := Thresholds{F: 1, S: 1}
	prev := &Previous{Status: StatusUp, ConsecutiveSuccesses: 5}
	r := Next(prev, probe.Outcome{Status: probe.StatusUp, LatencyMs: latency(5)}, th)
	if r.Changed || r.OutageAction != OutageNone {
		t.Fatalf("expected no change on up->up: %+v", r)
	}
}

func TestNext_UnknownTransition(t *testing.T) {
	th := Thresholds{F: 1, S: 1}
	prev := &Previous{Status: StatusUp}
	r := Next(prev, probe.Outcome{Status: probe.StatusUnknown, Error: "invalid method"}, th)
	if r.Status != StatusUnknown || !r.Changed || r.OutageAction != OutageNone {
		t.Fatalf("expected unknown transition: %+v", r)
	}
}

func TestNext_HigherFlapThreshold(t *testing.T) {
	th := Thresholds{F: 3, S: 1}
	prev := &Previous{Status: StatusUp}
	r1 := Next(prev, probe.Outcome{Status: probe.StatusDown, Error: "x"}, th)
	if r1.Changed || r1.OutageAction != OutageNone {
		t.Fatalf("expected no transition before F consecutive failures: %+v", r1)
	}
	if r1.Status != StatusUp {
		t.Fatalf("below-threshold failures should keep reporting previous status: %+v", r1)
	}
	if r1.ConsecutiveFailures != 1 {
		t.Fatalf("expected consecutive failures to still accumulate: %+v", r1)
	}
}

func intp(v int) *int { return &v }
