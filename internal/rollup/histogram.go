// Package rollup implements the daily reduction of spec §4.6: folding a UTC
// day of checks and outages into one MonitorDailyRollup row per monitor,
// with a latency histogram whose fixed bucket boundaries make cross-day
// aggregation (element-wise sum) and approximate percentile reconstruction
// possible without re-reading raw checks.
package rollup

import "sort"

// Buckets are the frozen latency histogram boundaries, in milliseconds.
// Bucket i covers [Buckets[i-1], Buckets[i]); bucket 0 covers
// [0, Buckets[0]); the final bucket (index len(Buckets)) covers
// [Buckets[last], +inf). This set must never change once rollups exist —
// changing it breaks comparability of historical rows.
var Buckets = []int64{50, 100, 200, 300, 500, 800, 1200, 2000, 5000, 10000}

// NewHistogram returns a zeroed histogram of length len(Buckets)+1.
func NewHistogram() []int64 {
	return make([]int64, len(Buckets)+1)
}

// BucketIndex returns the histogram slot a latency sample falls into.
func BucketIndex(latencyMs int64) int {
	for i, b := range Buckets {
		if latencyMs < b {
			return i
		}
	}
	return len(Buckets)
}

// AddSample increments the bucket holding v.
func AddSample(hist []int64, v int64) {
	hist[BucketIndex(v)]++
}

// MergeHistograms sums two equal-length histograms element-wise — the
// property the rollup's multi-day percentile aggregation depends on.
func MergeHistograms(dst, src []int64) []int64 {
	if dst == nil {
		dst = NewHistogram()
	}
	for i := range src {
		if i < len(dst) {
			dst[i] += src[i]
		}
	}
	return dst
}

// Percentile returns the nearest-rank percentile (0 < pct <= 1) over a
// sorted ascending sample. Spec §8 scenario 6: p50 of [10,20,30,40] is 20
// (rank = ceil(0.5*4)=2 -> index 1).
func Percentile(sorted []int64, pct float64) int64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(mathCeil(pct * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}

// PercentileFromHistogram approximates a percentile from a bucketed
// histogram, used when raw samples are no longer available (multi-day
// analytics reading merged rollup histograms). The estimate is the lower
// boundary of the bucket containing the target rank; the final bucket has
// no upper bound, so its own lower boundary is the best available estimate.
func PercentileFromHistogram(hist []int64, pct float64) int64 {
	total := int64(0)
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		return 0
	}
	rank := int64(mathCeil(pct * float64(total)))
	if rank < 1 {
		rank = 1
	}
	var cum int64
	for i, c := range hist {
		cum += c
		if cum >= rank {
			if i == 0 {
				return 0
			}
			if i >= len(Buckets) {
				return Buckets[len(Buckets)-1]
			}
			return Buckets[i-1]
		}
	}
	return Buckets[len(Buckets)-1]
}

func mathCeil(f float64) float64 {
	i := int64(f)
	if float64(i) < f {
		return float64(i + 1)
	}
	return float64(i)
}

// sortInt64s is a tiny wrapper so callers don't need to import sort directly
// just to prep a latency sample.
func sortInt64s(v []int64) {
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })
}
