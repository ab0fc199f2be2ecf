package db

import (
	"database/sql"
)

// CreateMonitor inserts a new monitor and its initial (unknown) state row.
func (s *Store) CreateMonitor(m Monitor) (Monitor, error) {
	if m.ID == "" {
		m.ID = genID("mon")
	}
	_, err := s.db.Exec(s.rebind(`
		INSERT INTO monitors (id, name, type, target, interval_sec, timeout_ms, is_active,
			created_at, updated_at, http_method, http_headers, http_body, expected_status,
			response_keyword, response_forbidden_keyword)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.Name, m.Type, m.Target, m.IntervalSec, m.TimeoutMS, m.IsActive,
		m.CreatedAt, m.UpdatedAt, m.HTTPMethod, m.HTTPHeaders, m.HTTPBody, m.ExpectedStatus,
		m.ResponseKeyword, m.ResponseForbiddenKeyword,
	)
	if err != nil {
		return Monitor{}, err
	}

	_, err = s.db.Exec(s.rebind(`
		INSERT INTO monitor_states (monitor_id, status, consecutive_failures, consecutive_successes)
		VALUES (?, 'unknown', 0, 0)`), m.ID)
	if err != nil {
		return Monitor{}, err
	}
	return m, nil
}

func scanMonitor(row interface{ Scan(...any) error }) (Monitor, error) {
	var m Monitor
	var httpMethod, httpHeaders, httpBody, expectedStatus, keyword, forbidden sql.NullString
	err := row.Scan(&m.ID, &m.Name, &m.Type, &m.Target, &m.IntervalSec, &m.TimeoutMS, &m.IsActive,
		&m.CreatedAt, &m.UpdatedAt, &httpMethod, &httpHeaders, &httpBody, &expectedStatus,
		&keyword, &forbidden)
	if err != nil {
		return Monitor{}, err
	}
	m.HTTPMethod = httpMethod.String
	m.HTTPHeaders = httpHeaders.String
	m.HTTPBody = httpBody.String
	m.ExpectedStatus = expectedStatus.String
	m.ResponseKeyword = keyword.String
	m.ResponseForbiddenKeyword = forbidden.String
	return m, nil
}

const monitorColumns = `id, name, type, target, interval_sec, timeout_ms, is_active,
	created_at, updated_at, http_method, http_headers, http_body, expected_status,
	response_keyword, response_forbidden_keyword`

// GetMonitor fetches one monitor by id.
func (s *Store) GetMonitor(id string) (Monitor, error) {
	row := s.db.QueryRow(s.rebind(`SELECT `+monitorColumns+` FROM monitors WHERE id = ?`), id)
	m, err := scanMonitor(row)
	if err == sql.ErrNoRows {
		return Monitor{}, ErrNotFound
	}
	return m, err
}

// ListMonitors returns every monitor, oldest first.
func (s *Store) ListMonitors() ([]Monitor, error) {
	rows, err := s.db.Query(`SELECT ` + monitorColumns + ` FROM monitors ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListActiveMonitors returns active monitors only (used by the scheduler
// and public status builder).
func (s *Store) ListActiveMonitors() ([]Monitor, error) {
	rows, err := s.db.Query(`SELECT ` + monitorColumns + ` FROM monitors WHERE is_active = true ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListDueMonitors selects monitors eligible for a probe this tick: active,
// state not paused, and either never checked or due per interval_sec.
func (s *Store) ListDueMonitors(checkedAt int64) ([]Monitor, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT m.`+monitorColumnsAliased()+`
		FROM monitors m
		JOIN monitor_states st ON st.monitor_id = m.id
		WHERE m.is_active = true
		  AND st.status != 'paused'
		  AND (st.last_checked_at IS NULL OR st.last_checked_at <= ? - m.interval_sec)`),
		checkedAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func monitorColumnsAliased() string {
	return "id, name, type, target, interval_sec, timeout_ms, is_active, created_at, updated_at, http_method, http_headers, http_body, expected_status, response_keyword, response_forbidden_keyword"
}

// UpdateMonitor overwrites a monitor's mutable fields, bumping updated_at.
func (s *Store) UpdateMonitor(m Monitor) error {
	res, err := s.db.Exec(s.rebind(`
		UPDATE monitors SET name=?, type=?, target=?, interval_sec=?, timeout_ms=?,
			http_method=?, http_headers=?, http_body=?, expected_status=?,
			response_keyword=?, response_forbidden_keyword=?, updated_at=?
		WHERE id=?`),
		m.Name, m.Type, m.Target, m.IntervalSec, m.TimeoutMS,
		m.HTTPMethod, m.HTTPHeaders, m.HTTPBody, m.ExpectedStatus,
		m.ResponseKeyword, m.ResponseForbiddenKeyword, m.UpdatedAt, m.ID,
	)
	return checkRowsAffected(res, err)
}

// SetMonitorActive flips is_active without touching other fields. Pausing
// (is_active stays true, state.status="paused") is handled separately by
// SetMonitorPaused — this toggles the scheduler-eligibility flag used by
// deletion/archival flows.
func (s *Store) SetMonitorActive(id string, active bool, updatedAt int64) error {
	res, err := s.db.Exec(s.rebind(`UPDATE monitors SET is_active=?, updated_at=? WHERE id=?`), active, updatedAt, id)
	return checkRowsAffected(res, err)
}

// SetMonitorPaused sets MonitorState.status to "paused" or clears it back
// to "unknown" on resume, per spec §4.10 Pause/Resume semantics: pausing
// prevents scheduler selection but never closes an ongoing outage.
func (s *Store) SetMonitorPaused(id string, paused bool) error {
	status := "unknown"
	if paused {
		status = "paused"
	}
	res, err := s.db.Exec(s.rebind(`UPDATE monitor_states SET status=? WHERE monitor_id=?`), status, id)
	return checkRowsAffected(res, err)
}

// DeleteMonitor removes a monitor and cascades to its state, checks,
// outages, and rollups (via ON DELETE CASCADE foreign keys), but leaves the
// id referenced by historical incidents/maintenance windows untouched so
// they still resolve (surfaced as "#<id>" by callers when the monitor is
// gone), per spec §4.10.
func (s *Store) DeleteMonitor(id string) error {
	res, err := s.db.Exec(s.rebind(`DELETE FROM monitors WHERE id=?`), id)
	return checkRowsAffected(res, err)
}

func checkRowsAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMonitorState fetches the current MonitorState row.
func (s *Store) GetMonitorState(monitorID string) (MonitorState, error) {
	row := s.db.QueryRow(s.rebind(`
		SELECT monitor_id, status, last_checked_at, last_changed_at, last_latency_ms,
			last_error, consecutive_failures, consecutive_successes
		FROM monitor_states WHERE monitor_id = ?`), monitorID)

	var st MonitorState
	var lastError sql.NullString
	err := row.Scan(&st.MonitorID, &st.Status, &st.LastCheckedAt, &st.LastChangedAt,
		&st.LastLatencyMs, &lastError, &st.ConsecutiveFailures, &st.ConsecutiveSuccesses)
	if err == sql.ErrNoRows {
		return MonitorState{}, ErrNotFound
	}
	if err != nil {
		return MonitorState{}, err
	}
	st.LastError = lastError.String
	return st, nil
}

// ListMonitorStates returns every state row, keyed by monitor id by the
// caller.
func (s *Store) ListMonitorStates() ([]MonitorState, error) {
	rows, err := s.db.Query(`
		SELECT monitor_id, status, last_checked_at, last_changed_at, last_latency_ms,
			last_error, consecutive_failures, consecutive_successes
		FROM monitor_states`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonitorState
	for rows.Next() {
		var st MonitorState
		var lastError sql.NullString
		if err := rows.Scan(&st.MonitorID, &st.Status, &st.LastCheckedAt, &st.LastChangedAt,
			&st.LastLatencyMs, &lastError, &st.ConsecutiveFailures, &st.ConsecutiveSuccesses); err != nil {
			return nil, err
		}
		st.LastError = lastError.String
		out = append(out, st)
	}
	return out, rows.Err()
}
