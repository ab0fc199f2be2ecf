// Package intervals implements the half-open [start, end) integer-second
// interval algebra shared by the scheduler, the daily rollup, the public
// status builder, and analytics: merge, sum, overlap, clip, and the
// unknown-coverage derivation. Kept allocation-conscious and free of any
// dependency on the rest of the service so it stays trivially testable.
package intervals

import "sort"

// Interval is a half-open [Start, End) range in integer unix seconds.
type Interval struct {
	Start int64
	End   int64
}

// Width returns max(0, End-Start).
func (i Interval) Width() int64 {
	if i.End <= i.Start {
		return 0
	}
	return i.End - i.Start
}

// Merge sorts by Start and coalesces overlapping/adjacent intervals. The
// result is strictly non-overlapping, sorted, and has no zero-width members.
func Merge(in []Interval) []Interval {
	work := make([]Interval, 0, len(in))
	for _, iv := range in {
		if iv.Width() > 0 {
			work = append(work, iv)
		}
	}
	if len(work) == 0 {
		return work
	}
	sort.Slice(work, func(i, j int) bool { return work[i].Start < work[j].Start })

	out := make([]Interval, 0, len(work))
	cur := work[0]
	for _, iv := range work[1:] {
		if iv.Start <= cur.End {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			continue
		}
		out = append(out, cur)
		cur = iv
	}
	out = append(out, cur)
	return out
}

// Sum returns the total width of a set of intervals (no merge assumed).
func Sum(in []Interval) int64 {
	var total int64
	for _, iv := range in {
		total += iv.Width()
	}
	return total
}

// Overlap computes the total overlapping duration between two ALREADY
// merged, sorted interval sets via a two-pointer sweep.
func Overlap(a, b []Interval) int64 {
	var total int64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := max64(a[i].Start, b[j].Start)
		end := min64(a[i].End, b[j].End)
		if end > start {
			total += end - start
		}
		if a[i].End < b[j].End {
			i++
		} else {
			j++
		}
	}
	return total
}

// Clip restricts i to rng, returning (clipped, ok). ok is false when the
// clipped result has non-positive width.
func Clip(i, rng Interval) (Interval, bool) {
	start := max64(i.Start, rng.Start)
	end := min64(i.End, rng.End)
	if end <= start {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// ClipAll clips every interval in 'in' to rng, dropping empties.
func ClipAll(in []Interval, rng Interval) []Interval {
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		if c, ok := Clip(iv, rng); ok {
			out = append(out, c)
		}
	}
	return out
}

// Check is the minimal shape build_unknown needs from a CheckResult:
// a timestamp and whether the check was the literal "unknown" status.
type Check struct {
	CheckedAt int64
	Unknown   bool
}

// BuildUnknown derives the unknown-coverage sub-intervals of
// [rangeStart, rangeEnd) given a chronologically ordered check sequence and
// the monitor's interval. A check at time t is treated as covering
// [t, t+2*intervalSec); gaps and stretches covered by a literally-unknown
// check are both "unknown". checks must be sorted ascending by CheckedAt and
// may include checks before rangeStart (their coverage can extend into the
// range).
func BuildUnknown(rangeStart, rangeEnd, intervalSec int64, checks []Check) []Interval {
	if rangeEnd <= rangeStart || intervalSec <= 0 {
		return nil
	}
	jitter := 2 * intervalSec

	// known covers the portions of [rangeStart,rangeEnd) that are covered by
	// a non-unknown check; unknown covers portions covered by a literally
	// unknown check. Whatever is in neither is an uncovered gap, also
	// unknown.
	var known, explicitUnknown []Interval
	for _, c := range checks {
		cov := Interval{Start: c.CheckedAt, End: c.CheckedAt + jitter}
		clipped, ok := Clip(cov, Interval{Start: rangeStart, End: rangeEnd})
		if !ok {
			continue
		}
		if c.Unknown {
			explicitUnknown = append(explicitUnknown, clipped)
		} else {
			known = append(known, clipped)
		}
	}

	knownMerged := Merge(known)
	fullRange := []Interval{{Start: rangeStart, End: rangeEnd}}
	gaps := subtract(fullRange, knownMerged)

	return Merge(append(gaps, explicitUnknown...))
}

// subtract removes the merged interval set 'rem' from the merged interval
// set 'base' (both assumed sorted/merged on entry to 'base'; rem is merged
// internally).
func subtract(base, rem []Interval) []Interval {
	remMerged := Merge(rem)
	var out []Interval
	for _, b := range base {
		cur := b.Start
		for _, r := range remMerged {
			if r.End <= cur || r.Start >= b.End {
				continue
			}
			if r.Start > cur {
				out = append(out, Interval{Start: cur, End: r.Start})
			}
			if r.End > cur {
				cur = r.End
			}
		}
		if cur < b.End {
			out = append(out, Interval{Start: cur, End: b.End})
		}
	}
	return out
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
