package rollup

import "testing"

func TestPercentileNearestRank(t *testing.T) {
	sorted := []int64{10, 20, 30, 40}
	if p := Percentile(sorted, 0.5); p != 20 {
		t.Errorf("p50 = %d, want 20", p)
	}
	if p := Percentile(sorted, 0.95); p != 40 {
		t.Errorf("p95 = %d, want 40", p)
	}
}

func TestHistogramMerge(t *testing.T) {
	a := NewHistogram()
	AddSample(a, 10)
	AddSample(a, 600)
	b := NewHistogram()
	AddSample(b, 10)

	merged := MergeHistograms(a, b)
	if merged[BucketIndex(10)] != 2 {
		t.Errorf("expected merged bucket for latency 10 to be 2, got %d", merged[BucketIndex(10)])
	}
}

func TestPercentileFromHistogramMatchesRawApprox(t *testing.T) {
	hist := NewHistogram()
	for _, v := range []int64{10, 20, 30, 40} {
		AddSample(hist, v)
	}
	// All four samples land in the first bucket ([0,50)); the histogram
	// can only resolve to bucket granularity, so the best available
	// estimate for any percentile within that bucket is its lower bound, 0.
	if got := PercentileFromHistogram(hist, 0.5); got != 0 {
		t.Errorf("PercentileFromHistogram(0.5) = %d, want 0", got)
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := []struct {
		v    int64
		want int
	}{
		{0, 0},
		{49, 0},
		{50, 1},
		{10000, len(Buckets)},
		{50000, len(Buckets)},
	}
	for _, c := range cases {
		if got := BucketIndex(c.v); got != c.want {
			t.Errorf("BucketIndex(%d) = %d, want %d", c.v, got, c.want)
		}
	}
}
