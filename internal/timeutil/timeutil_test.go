package timeutil

import "testing"

func TestFloorToMinute(t *testing.T) {
	cases := map[int64]int64{
		0:   0,
		59:  0,
		60:  60,
		125: 120,
	}
	for in, want := range cases {
		if got := FloorToMinute(in); got != want {
			t.Errorf("FloorToMinute(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestUTCDayStart(t *testing.T) {
	// 2024-01-02T10:30:00Z
	ts := int64(1704191400)
	got := UTCDayStart(ts)
	// 2024-01-02T00:00:00Z
	want := int64(1704153600)
	if got != want {
		t.Errorf("UTCDayStart(%d) = %d, want %d", ts, got, want)
	}
}

func TestPreviousUTCDay(t *testing.T) {
	ts := int64(1704191400) // 2024-01-02T10:30:00Z
	start, end := PreviousUTCDay(ts)
	if end-start != 86400 {
		t.Errorf("expected 86400s day width, got %d", end-start)
	}
	if end != UTCDayStart(ts) {
		t.Errorf("dayEnd should equal today's start, got %d want %d", end, UTCDayStart(ts))
	}
}

func TestRangeSeconds(t *testing.T) {
	cases := map[string]int64{"24h": 86400, "7d": 7 * 86400, "30d": 30 * 86400, "90d": 90 * 86400}
	for rng, want := range cases {
		got, ok := RangeSeconds(rng)
		if !ok || got != want {
			t.Errorf("RangeSeconds(%q) = %d,%v want %d,true", rng, got, ok, want)
		}
	}
	if _, ok := RangeSeconds("bogus"); ok {
		t.Error("expected RangeSeconds(bogus) to fail")
	}
}
