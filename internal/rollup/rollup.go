package rollup

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/driftwatch/sentinel/internal/db"
	"github.com/driftwatch/sentinel/internal/intervals"
)

const leaseHolderPrefix = "rollup"

// batchSize matches spec §4.6 step 7: "Batches of 50 flush at a time."
const batchSize = 50

// Run computes and upserts the rollup for the UTC day [dayStart, dayStart+86400)
// across every monitor created before the day ends, under a named lease so
// overlapping/duplicate invocations of the daily trigger are safe (R1).
func Run(store *db.Store, logger *log.Logger, holderID string, now, dayStart int64, leaseSeconds int64) error {
	dayEnd := dayStart + 86400
	leaseName := fmt.Sprintf("analytics:daily-rollup:%d", dayStart)

	ok, err := store.AcquireLock(leaseName, holderID, now, leaseSeconds)
	if err != nil {
		return fmt.Errorf("acquire rollup lease: %w", err)
	}
	if !ok {
		logger.Printf("rollup for day %d already leased, skipping", dayStart)
		return nil
	}

	monitors, err := store.ListMonitors()
	if err != nil {
		return fmt.Errorf("list monitors: %w", err)
	}

	var batch []db.MonitorDailyRollup
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.BatchUpsertDailyRollups(batch); err != nil {
			return fmt.Errorf("flush rollup batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, m := range monitors {
		if m.CreatedAt >= dayEnd {
			continue
		}
		row, err := ComputeDay(store, m, dayStart, dayEnd)
		if err != nil {
			logger.Printf("rollup: monitor %s: %v", m.ID, err)
			continue
		}
		if row == nil {
			continue // empty range for this monitor (created after the day started... shouldn't happen given the guard above, but defensive)
		}
		batch = append(batch, *row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// ComputeDay reduces one monitor's day per spec §4.6 steps 1-6. Returns nil
// when the clipped range is empty (monitor created at/after dayEnd).
func ComputeDay(store *db.Store, m db.Monitor, dayStart, dayEnd int64) (*db.MonitorDailyRollup, error) {
	rangeStart := dayStart
	if m.CreatedAt > rangeStart {
		rangeStart = m.CreatedAt
	}
	if rangeStart >= dayEnd {
		return nil, nil
	}
	rangeEnd := dayEnd

	outages, err := store.GetOutagesOverlapping(m.ID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("outages: %w", err)
	}
	var downtimeRaw []intervals.Interval
	for _, o := range outages {
		end := rangeEnd
		if o.EndedAt != nil {
			end = *o.EndedAt
		}
		downtimeRaw = append(downtimeRaw, intervals.Interval{Start: o.StartedAt, End: end})
	}
	downtime := intervals.ClipAll(intervals.Merge(downtimeRaw), intervals.Interval{Start: rangeStart, End: rangeEnd})
	downtimeSec := intervals.Sum(downtime)

	// Unknown-coverage derivation needs checks from before rangeStart too,
	// so a check just prior can still cover into the range (spec §4.1).
	lookback := rangeStart - 2*int64(m.IntervalSec)
	checksForUnknown, err := store.GetMonitorChecksInRange(m.ID, lookback, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("checks for unknown: %w", err)
	}
	var ivChecks []intervals.Check
	for _, c := range checksForUnknown {
		ivChecks = append(ivChecks, intervals.Check{CheckedAt: c.CheckedAt, Unknown: c.Status == "unknown"})
	}
	unknown := intervals.BuildUnknown(rangeStart, rangeEnd, int64(m.IntervalSec), ivChecks)
	unknownSec := intervals.Sum(unknown) - intervals.Overlap(intervals.Merge(unknown), downtime)
	if unknownSec < 0 {
		unknownSec = 0
	}

	totalSec := rangeEnd - rangeStart
	unavailableSec := downtimeSec + unknownSec
	if unavailableSec > totalSec {
		unavailableSec = totalSec
	}
	uptimeSec := totalSec - unavailableSec

	// Counts only over checks with checked_at >= rangeStart (spec step 5).
	checksTotal, checksUp, checksDown, checksUnknown, checksMaintenance := 0, 0, 0, 0, 0
	var upLatencies []int64
	for _, c := range checksForUnknown {
		if c.CheckedAt < rangeStart {
			continue
		}
		checksTotal++
		switch c.Status {
		case "up":
			checksUp++
			if c.LatencyMs != nil {
				upLatencies = append(upLatencies, *c.LatencyMs)
			}
		case "down":
			checksDown++
		case "unknown":
			checksUnknown++
		case "maintenance":
			checksMaintenance++
		}
	}

	hist := NewHistogram()
	for _, v := range upLatencies {
		AddSample(hist, v)
	}
	sortInt64s(upLatencies)

	var avgLatency, p50, p95 *int64
	if len(upLatencies) > 0 {
		var sum int64
		for _, v := range upLatencies {
			sum += v
		}
		avg := roundDiv(sum, int64(len(upLatencies)))
		avgLatency = &avg
		p50v := Percentile(upLatencies, 0.5)
		p95v := Percentile(upLatencies, 0.95)
		p50 = &p50v
		p95 = &p95v
	}

	histJSON, err := json.Marshal(hist)
	if err != nil {
		return nil, fmt.Errorf("marshal histogram: %w", err)
	}

	return &db.MonitorDailyRollup{
		MonitorID:            m.ID,
		DayStartAt:            dayStart,
		TotalSec:              totalSec,
		DowntimeSec:           downtimeSec,
		UnknownSec:            unknownSec,
		UptimeSec:             uptimeSec,
		ChecksTotal:           checksTotal,
		ChecksUp:              checksUp,
		ChecksDown:            checksDown,
		ChecksUnknown:         checksUnknown,
		ChecksMaintenance:     checksMaintenance,
		AvgLatencyMs:          avgLatency,
		P50:                   p50,
		P95:                   p95,
		LatencyHistogramJSON:  string(histJSON),
	}, nil
}

func roundDiv(sum, n int64) int64 {
	if n == 0 {
		return 0
	}
	// round-half-up on a non-negative quotient
	return (sum + n/2) / n
}
