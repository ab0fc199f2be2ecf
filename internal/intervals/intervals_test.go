package intervals

import "testing"

func TestMerge_CoalescesOverlapping(t *testing.T) {
	in := []Interval{{0, 10}, {5, 15}, {20, 30}, {30, 40}}
	got := Merge(in)
	want := []Interval{{0, 15}, {20, 40}}
	if !equal(got, want) {
		t.Fatalf("Merge() = %v, want %v", got, want)
	}
}

func TestMerge_NonOverlappingSortedNonDecreasing(t *testing.T) {
	// I1: for any merged set M, M[i].end < M[i+1].start and M[i].start < M[i].end
	in := []Interval{{50, 60}, {0, 10}, {20, 25}, {5, 8}}
	got := Merge(in)
	for i := 0; i < len(got); i++ {
		if got[i].Start >= got[i].End {
			t.Fatalf("interval %d has non-positive width: %v", i, got[i])
		}
		if i > 0 && got[i-1].End >= got[i].Start {
			t.Fatalf("intervals %d and %d are not strictly separated: %v %v", i-1, i, got[i-1], got[i])
		}
	}
}

func TestMerge_Idempotent(t *testing.T) {
	// I2: sum(merge(merge(X))) = sum(merge(X))
	in := []Interval{{0, 10}, {5, 20}, {25, 30}}
	once := Merge(in)
	twice := Merge(once)
	if Sum(once) != Sum(twice) {
		t.Fatalf("merge not idempotent on sum: once=%d twice=%d", Sum(once), Sum(twice))
	}
}

func TestOverlap_BoundedAndSymmetric(t *testing.T) {
	a := Merge([]Interval{{0, 10}, {20, 30}})
	b := Merge([]Interval{{5, 25}})
	ab := Overlap(a, b)
	ba := Overlap(b, a)
	if ab != ba {
		t.Fatalf("overlap not symmetric: %d vs %d", ab, ba)
	}
	if ab > min64(Sum(a), Sum(b)) {
		t.Fatalf("overlap %d exceeds min(sum(a),sum(b))", ab)
	}
	// [5,10) + [20,25) = 5+5 = 10
	if ab != 10 {
		t.Fatalf("overlap = %d, want 10", ab)
	}
}

func TestClip(t *testing.T) {
	got, ok := Clip(Interval{Start: -5, End: 100}, Interval{Start: 0, End: 50})
	if !ok || got != (Interval{Start: 0, End: 50}) {
		t.Fatalf("Clip() = %v, %v", got, ok)
	}
	_, ok = Clip(Interval{Start: 100, End: 200}, Interval{Start: 0, End: 50})
	if ok {
		t.Fatalf("expected no overlap to clip to nothing")
	}
}

func TestBuildUnknown_GapBetweenChecks(t *testing.T) {
	// Scenario 3 from the spec: interval_sec=60, checks at t=0 (up) and
	// t=240 (up). For day [0, 86400), the gap [120, 240) must be unknown.
	checks := []Check{{CheckedAt: 0}, {CheckedAt: 240}}
	got := BuildUnknown(0, 86400, 60, checks)

	var unknownSec int64
	for _, iv := range got {
		unknownSec += iv.Width()
	}
	if unknownSec < 120 {
		t.Fatalf("unknown_sec = %d, want >= 120", unknownSec)
	}

	found := false
	for _, iv := range got {
		if c, ok := Clip(Interval{120, 240}, iv); ok && c.Width() == 120 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected [120,240) to be covered by unknown intervals, got %v", got)
	}
}

func TestBuildUnknown_ExplicitUnknownCheck(t *testing.T) {
	checks := []Check{{CheckedAt: 0}, {CheckedAt: 60, Unknown: true}, {CheckedAt: 120}}
	got := BuildUnknown(0, 300, 60, checks)
	if len(got) == 0 {
		t.Fatalf("expected some unknown coverage from explicit unknown check")
	}
}

func equal(a, b []Interval) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
