// Package analytics implements the overview and per-monitor analytics
// queries of spec §4.9: a fleet-wide overview built with the interval
// algebra shared with the daily rollup, a live per-monitor 24h view (raw
// check points plus average and p95 latency over up checks; it computes no
// uptime, downtime or unknown seconds), and 7/30/90d views read from
// rollups with missing days treated as fully unknown.
package analytics

import (
	"encoding/json"
	"sort"

	"github.com/driftwatch/sentinel/internal/db"
	"github.com/driftwatch/sentinel/internal/intervals"
	"github.com/driftwatch/sentinel/internal/rollup"
	"github.com/driftwatch/sentinel/internal/timeutil"
)

// Overview is the fleet-wide summary for a 24h or 7d window.
type Overview struct {
	RangeStart     int64   `json:"range_start_at"`
	RangeEnd       int64   `json:"range_end_at"`
	TotalSec       int64   `json:"total_sec"`
	DowntimeSec    int64   `json:"downtime_sec"`
	UptimeSec      int64   `json:"uptime_sec"`
	UptimePct      float64 `json:"uptime_pct"`
	MonitorsTotal  int     `json:"monitors_total"`
	AlertsCount    int     `json:"alerts_count"`
	LongestOutage  int64   `json:"outages_longest_sec"`
	MTTRSec        float64 `json:"outages_mttr_sec"`
}

// BuildOverview implements spec §4.9's overview query for window seconds
// (86400 for 24h, 7*86400 for 7d), anchored so 24h floors to the current
// minute and 7d floors to the UTC day start.
func BuildOverview(store *db.Store, now int64, windowSec int64) (Overview, error) {
	var rangeEnd int64
	if windowSec == 86400 {
		rangeEnd = timeutil.FloorToMinute(now)
	} else {
		rangeEnd = timeutil.UTCDayStart(now)
	}
	rangeStart := rangeEnd - windowSec

	monitors, err := store.ListActiveMonitors()
	if err != nil {
		return Overview{}, err
	}

	var totalSec, downtimeSec int64
	var longestOutage int64
	var mttrSum float64
	var mttrCount int
	alerts := 0

	for _, m := range monitors {
		ms := rangeStart
		if m.CreatedAt > ms {
			ms = m.CreatedAt
		}
		if ms >= rangeEnd {
			continue
		}
		totalSec += rangeEnd - ms

		outages, err := store.GetOutagesOverlapping(m.ID, ms, rangeEnd)
		if err != nil {
			return Overview{}, err
		}
		var ivs []intervals.Interval
		for _, o := range outages {
			end := rangeEnd
			if o.EndedAt != nil {
				end = *o.EndedAt
			}
			ivs = append(ivs, intervals.Interval{Start: o.StartedAt, End: end})
		}
		clipped := intervals.ClipAll(intervals.Merge(ivs), intervals.Interval{Start: ms, End: rangeEnd})
		downtimeSec += intervals.Sum(clipped)
		for _, iv := range clipped {
			if w := iv.Width(); w > longestOutage {
				longestOutage = w
			}
		}

		n, err := store.CountNewOutagesInRange(m.ID, ms, rangeEnd)
		if err != nil {
			return Overview{}, err
		}
		alerts += n

		resolved, err := store.GetResolvedOutagesInRange(m.ID, ms, rangeEnd)
		if err != nil {
			return Overview{}, err
		}
		for _, o := range resolved {
			mttrSum += float64(*o.EndedAt - o.StartedAt)
			mttrCount++
		}
	}

	uptimeSec := totalSec - downtimeSec
	uptimePct := 100.0
	if totalSec > 0 {
		uptimePct = 100.0 * float64(uptimeSec) / float64(totalSec)
	}
	mttr := 0.0
	if mttrCount > 0 {
		mttr = mttrSum / float64(mttrCount)
	}

	return Overview{
		RangeStart:    rangeStart,
		RangeEnd:      rangeEnd,
		TotalSec:      totalSec,
		DowntimeSec:   downtimeSec,
		UptimeSec:     uptimeSec,
		UptimePct:     uptimePct,
		MonitorsTotal: len(monitors),
		AlertsCount:   alerts,
		LongestOutage: longestOutage,
		MTTRSec:       mttr,
	}, nil
}

// LivePoint is one raw check rendered for a chart.
type LivePoint struct {
	CheckedAt int64  `json:"checked_at"`
	Status    string `json:"status"`
	LatencyMs *int64 `json:"latency_ms"`
}

// Live24h is the per-monitor live 24h computation (spec §4.9 "per-monitor
// 24h"): raw points for charting plus percentiles over raw up-latencies.
type Live24h struct {
	RangeStart   int64       `json:"range_start_at"`
	RangeEnd     int64       `json:"range_end_at"`
	AvgLatencyMs *int64      `json:"avg_latency_ms"`
	P95LatencyMs *int64      `json:"p95_latency_ms"`
	Points       []LivePoint `json:"points"`
}

func BuildLive24h(store *db.Store, monitorID string, now int64) (Live24h, error) {
	rangeEnd := timeutil.FloorToMinute(now)
	rangeStart := rangeEnd - 86400

	checks, err := store.GetMonitorChecksInRange(monitorID, rangeStart, rangeEnd)
	if err != nil {
		return Live24h{}, err
	}

	points := make([]LivePoint, 0, len(checks))
	var upLatencies []int64
	for _, c := range checks {
		points = append(points, LivePoint{CheckedAt: c.CheckedAt, Status: c.Status, LatencyMs: c.LatencyMs})
		if c.Status == "up" && c.LatencyMs != nil {
			upLatencies = append(upLatencies, *c.LatencyMs)
		}
	}

	var avg, p95 *int64
	if len(upLatencies) > 0 {
		sorted := append([]int64(nil), upLatencies...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, v := range sorted {
			sum += v
		}
		a := (sum + int64(len(sorted))/2) / int64(len(sorted))
		p := rollup.Percentile(sorted, 0.95)
		avg = &a
		p95 = &p
	}

	return Live24h{RangeStart: rangeStart, RangeEnd: rangeEnd, AvgLatencyMs: avg, P95LatencyMs: p95, Points: points}, nil
}

// RollupWindow is the 7/30/90d per-monitor summary read from daily
// rollups (spec §4.9): missing days count as fully unknown.
type RollupWindow struct {
	RangeStart   int64  `json:"range_start_at"`
	RangeEnd     int64  `json:"range_end_at"`
	TotalSec     int64  `json:"total_sec"`
	DowntimeSec  int64  `json:"downtime_sec"`
	UnknownSec   int64  `json:"unknown_sec"`
	UptimeSec    int64  `json:"uptime_sec"`
	UptimePct    float64 `json:"uptime_pct"`
	AvgLatencyMs *int64 `json:"avg_latency_ms"`
	P50          int64  `json:"p50"`
	P95          int64  `json:"p95"`
}

// BuildRollupWindow aggregates daily rollups over [rangeStart, rangeEnd)
// (both UTC-day-aligned), filling any day with no stored rollup as fully
// unknown so charts stay continuous.
func BuildRollupWindow(store *db.Store, monitorID string, rangeStart, rangeEnd int64) (RollupWindow, error) {
	rows, err := store.ListDailyRollups(monitorID, rangeStart, rangeEnd)
	if err != nil {
		return RollupWindow{}, err
	}
	byDay := make(map[int64]db.MonitorDailyRollup, len(rows))
	for _, r := range rows {
		byDay[r.DayStartAt] = r
	}

	const dayWidth = int64(86400)
	hist := rollup.NewHistogram()
	var totalSec, downtimeSec, unknownSec, uptimeSec int64
	var latencyWeightedSum, latencyWeight int64

	for day := rangeStart; day < rangeEnd; day += dayWidth {
		r, ok := byDay[day]
		if !ok {
			totalSec += dayWidth
			unknownSec += dayWidth
			continue
		}
		totalSec += r.TotalSec
		downtimeSec += r.DowntimeSec
		unknownSec += r.UnknownSec
		uptimeSec += r.UptimeSec

		var dayHist []int64
		if r.LatencyHistogramJSON != "" {
			_ = json.Unmarshal([]byte(r.LatencyHistogramJSON), &dayHist)
		}
		hist = rollup.MergeHistograms(hist, dayHist)

		if r.AvgLatencyMs != nil && r.ChecksUp > 0 {
			latencyWeightedSum += *r.AvgLatencyMs * int64(r.ChecksUp)
			latencyWeight += int64(r.ChecksUp)
		}
	}

	uptimePct := 100.0
	if totalSec > 0 {
		uptimePct = 100.0 * float64(uptimeSec) / float64(totalSec)
	}

	var avgLatency *int64
	if latencyWeight > 0 {
		a := (latencyWeightedSum + latencyWeight/2) / latencyWeight
		avgLatency = &a
	}

	return RollupWindow{
		RangeStart:   rangeStart,
		RangeEnd:     rangeEnd,
		TotalSec:     totalSec,
		DowntimeSec:  downtimeSec,
		UnknownSec:   unknownSec,
		UptimeSec:    uptimeSec,
		UptimePct:    uptimePct,
		AvgLatencyMs: avgLatency,
		P50:          rollup.PercentileFromHistogram(hist, 0.5),
		P95:          rollup.PercentileFromHistogram(hist, 0.95),
	}, nil
}

// ListOutages is the keyset-paginated outage listing of spec §4.9,
// bounded to [rangeStart, rangeEnd) and ordered by id DESC.
func ListOutages(store *db.Store, monitorID string, rangeStart, rangeEnd int64, beforeID int64, limit int) ([]db.Outage, error) {
	return store.ListOutagesForMonitor(monitorID, rangeStart, rangeEnd, beforeID, limit)
}
