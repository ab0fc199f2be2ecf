package db

import "database/sql"

// execer is satisfied by both *sql.DB and *sql.Tx, letting the upsert body
// run either standalone or as part of a batch transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// UpsertDailyRollup writes or overwrites the rollup row for
// (monitor_id, day_start_at). Overwriting on conflict makes a rerun of the
// same day idempotent (R1): recomputing a day's rollup twice produces the
// same stored row, not a duplicate or a drifted accumulation.
func (s *Store) UpsertDailyRollup(r MonitorDailyRollup) error {
	return s.upsertDailyRollupTx(s.db, r)
}

func (s *Store) upsertDailyRollupTx(ex execer, r MonitorDailyRollup) error {
	if s.IsPostgres() {
		_, err := ex.Exec(s.rebind(`
			INSERT INTO monitor_daily_rollups (monitor_id, day_start_at, total_sec, downtime_sec,
				unknown_sec, uptime_sec, checks_total, checks_up, checks_down, checks_unknown,
				checks_maintenance, avg_latency_ms, p50, p95, latency_histogram_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (monitor_id, day_start_at) DO UPDATE SET
				total_sec=EXCLUDED.total_sec, downtime_sec=EXCLUDED.downtime_sec,
				unknown_sec=EXCLUDED.unknown_sec, uptime_sec=EXCLUDED.uptime_sec,
				checks_total=EXCLUDED.checks_total, checks_up=EXCLUDED.checks_up,
				checks_down=EXCLUDED.checks_down, checks_unknown=EXCLUDED.checks_unknown,
				checks_maintenance=EXCLUDED.checks_maintenance, avg_latency_ms=EXCLUDED.avg_latency_ms,
				p50=EXCLUDED.p50, p95=EXCLUDED.p95, latency_histogram_json=EXCLUDED.latency_histogram_json`),
			r.MonitorID, r.DayStartAt, r.TotalSec, r.DowntimeSec, r.UnknownSec, r.UptimeSec,
			r.ChecksTotal, r.ChecksUp, r.ChecksDown, r.ChecksUnknown, r.ChecksMaintenance,
			r.AvgLatencyMs, r.P50, r.P95, r.LatencyHistogramJSON,
		)
		return err
	}

	_, err := ex.Exec(`
		INSERT INTO monitor_daily_rollups (monitor_id, day_start_at, total_sec, downtime_sec,
			unknown_sec, uptime_sec, checks_total, checks_up, checks_down, checks_unknown,
			checks_maintenance, avg_latency_ms, p50, p95, latency_histogram_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (monitor_id, day_start_at) DO UPDATE SET
			total_sec=excluded.total_sec, downtime_sec=excluded.downtime_sec,
			unknown_sec=excluded.unknown_sec, uptime_sec=excluded.uptime_sec,
			checks_total=excluded.checks_total, checks_up=excluded.checks_up,
			checks_down=excluded.checks_down, checks_unknown=excluded.checks_unknown,
			checks_maintenance=excluded.checks_maintenance, avg_latency_ms=excluded.avg_latency_ms,
			p50=excluded.p50, p95=excluded.p95, latency_histogram_json=excluded.latency_histogram_json`,
		r.MonitorID, r.DayStartAt, r.TotalSec, r.DowntimeSec, r.UnknownSec, r.UptimeSec,
		r.ChecksTotal, r.ChecksUp, r.ChecksDown, r.ChecksUnknown, r.ChecksMaintenance,
		r.AvgLatencyMs, r.P50, r.P95, r.LatencyHistogramJSON,
	)
	return err
}

// BatchUpsertDailyRollups writes a batch of rollup rows in one transaction
// (spec §4.6 step 7: "Batches of 50 flush at a time"). The caller is
// expected to chunk its monitor set into batches of that size.
func (s *Store) BatchUpsertDailyRollups(rows []MonitorDailyRollup) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range rows {
		if err := s.upsertDailyRollupTx(tx, r); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanRollup(row interface{ Scan(...any) error }) (MonitorDailyRollup, error) {
	var r MonitorDailyRollup
	err := row.Scan(&r.MonitorID, &r.DayStartAt, &r.TotalSec, &r.DowntimeSec, &r.UnknownSec,
		&r.UptimeSec, &r.ChecksTotal, &r.ChecksUp, &r.ChecksDown, &r.ChecksUnknown,
		&r.ChecksMaintenance, &r.AvgLatencyMs, &r.P50, &r.P95, &r.LatencyHistogramJSON)
	return r, err
}

const rollupColumns = `monitor_id, day_start_at, total_sec, downtime_sec, unknown_sec, uptime_sec,
	checks_total, checks_up, checks_down, checks_unknown, checks_maintenance,
	avg_latency_ms, p50, p95, latency_histogram_json`

// GetDailyRollup fetches one day's rollup, if present.
func (s *Store) GetDailyRollup(monitorID string, dayStartAt int64) (*MonitorDailyRollup, error) {
	row := s.db.QueryRow(s.rebind(`SELECT `+rollupColumns+` FROM monitor_daily_rollups WHERE monitor_id = ? AND day_start_at = ?`), monitorID, dayStartAt)
	r, err := scanRollup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListDailyRollups returns rollups for a monitor within [rangeStart,
// rangeEnd) by day_start_at, ascending — missing days simply aren't
// present, and are treated as fully unknown by the analytics reader.
func (s *Store) ListDailyRollups(monitorID string, rangeStart, rangeEnd int64) ([]MonitorDailyRollup, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT `+rollupColumns+` FROM monitor_daily_rollups
		WHERE monitor_id = ? AND day_start_at >= ? AND day_start_at < ? ORDER BY day_start_at ASC`),
		monitorID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonitorDailyRollup
	for rows.Next() {
		r, err := scanRollup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
