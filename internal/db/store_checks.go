package db

import (
	"database/sql"
	"fmt"
)

// PersistCheckInput is everything one scheduler tick needs to commit for a
// single monitor in one atomic batch (spec §4.4.1): a new CheckResult row,
// an upsert of MonitorState, and a conditional mutation of the Outage
// table driven by OutageAction.
type PersistCheckInput struct {
	MonitorID  string
	CheckedAt  int64
	Status     string // up | down | maintenance | unknown
	LatencyMs  *int64
	HTTPStatus *int
	Error      string
	Attempt    int

	NextStatus               string
	NextConsecutiveFailures  int
	NextConsecutiveSuccesses int
	NextLastError            string

	OutageAction string // open | close | update | none
}

// PersistCheck writes the CheckResult, MonitorState, and Outage mutation
// for one probe as a single transaction. The "open" action is guarded by
// NOT EXISTS (ongoing outage) so a duplicate batch (R2) is a no-op.
func (s *Store) PersistCheck(in PersistCheckInput) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.rebind(`
		INSERT INTO check_results (monitor_id, checked_at, status, latency_ms, http_status, error, attempt)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		in.MonitorID, in.CheckedAt, in.Status, in.LatencyMs, in.HTTPStatus, in.Error, in.Attempt,
	); err != nil {
		return fmt.Errorf("insert check_result: %w", err)
	}

	var lastLatency *int64
	if in.Status == "up" {
		lastLatency = in.LatencyMs
	}
	if _, err := tx.Exec(s.rebind(`
		UPDATE monitor_states SET status=?, last_checked_at=?, last_changed_at=CASE WHEN ? THEN ? ELSE last_changed_at END,
			last_latency_ms=?, last_error=?, consecutive_failures=?, consecutive_successes=?
		WHERE monitor_id=?`),
		in.NextStatus, in.CheckedAt, in.OutageAction == "open" || in.OutageAction == "close", in.CheckedAt,
		lastLatency, in.NextLastError, in.NextConsecutiveFailures, in.NextConsecutiveSuccesses, in.MonitorID,
	); err != nil {
		return fmt.Errorf("update monitor_state: %w", err)
	}

	switch in.OutageAction {
	case "open":
		if _, err := tx.Exec(s.rebind(`
			INSERT INTO outages (monitor_id, started_at, initial_error, last_error)
			SELECT ?, ?, ?, ?
			WHERE NOT EXISTS (SELECT 1 FROM outages WHERE monitor_id = ? AND ended_at IS NULL)`),
			in.MonitorID, in.CheckedAt, in.Error, in.Error, in.MonitorID,
		); err != nil {
			return fmt.Errorf("open outage: %w", err)
		}
	case "close":
		if _, err := tx.Exec(s.rebind(`
			UPDATE outages SET ended_at=? WHERE monitor_id=? AND ended_at IS NULL`),
			in.CheckedAt, in.MonitorID,
		); err != nil {
			return fmt.Errorf("close outage: %w", err)
		}
	case "update":
		if _, err := tx.Exec(s.rebind(`
			UPDATE outages SET last_error=? WHERE monitor_id=? AND ended_at IS NULL`),
			in.Error, in.MonitorID,
		); err != nil {
			return fmt.Errorf("update outage: %w", err)
		}
	}

	return tx.Commit()
}

// GetMonitorChecks returns the most recent `limit` checks for a monitor,
// newest first.
func (s *Store) GetMonitorChecks(monitorID string, limit int) ([]CheckResult, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT id, monitor_id, checked_at, status, latency_ms, http_status, error, attempt
		FROM check_results WHERE monitor_id = ? ORDER BY checked_at DESC LIMIT ?`), monitorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChecks(rows)
}

// GetMonitorChecksInRange returns checks in [rangeStart, rangeEnd), oldest
// first, used by the daily rollup and 24h analytics.
func (s *Store) GetMonitorChecksInRange(monitorID string, rangeStart, rangeEnd int64) ([]CheckResult, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT id, monitor_id, checked_at, status, latency_ms, http_status, error, attempt
		FROM check_results
		WHERE monitor_id = ? AND checked_at >= ? AND checked_at < ?
		ORDER BY checked_at ASC`), monitorID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChecks(rows)
}

// GetHeartbeats returns the latest `limit` checks for a monitor within
// [since, now), returned in chronological (ascending) order — the shape the
// public status builder's heartbeat bars need (spec §4.7 step 7).
func (s *Store) GetHeartbeats(monitorID string, since int64, limit int) ([]CheckResult, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT id, monitor_id, checked_at, status, latency_ms, http_status, error, attempt
		FROM check_results
		WHERE monitor_id = ? AND checked_at >= ?
		ORDER BY checked_at DESC LIMIT ?`), monitorID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := scanChecks(rows)
	if err != nil {
		return nil, err
	}
	// reverse into chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func scanChecks(rows *sql.Rows) ([]CheckResult, error) {
	var out []CheckResult
	for rows.Next() {
		var c CheckResult
		var errStr sql.NullString
		if err := rows.Scan(&c.ID, &c.MonitorID, &c.CheckedAt, &c.Status, &c.LatencyMs, &c.HTTPStatus, &errStr, &c.Attempt); err != nil {
			return nil, err
		}
		c.Error = errStr.String
		out = append(out, c)
	}
	return out, rows.Err()
}
