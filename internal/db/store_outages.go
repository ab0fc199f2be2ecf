package db

import "database/sql"

func scanOutage(row interface {
	Scan(...any) error
}) (Outage, error) {
	var o Outage
	var initial, last sql.NullString
	err := row.Scan(&o.ID, &o.MonitorID, &o.StartedAt, &o.EndedAt, &initial, &last)
	if err != nil {
		return Outage{}, err
	}
	o.InitialError = initial.String
	o.LastError = last.String
	return o, nil
}

// GetActiveOutage returns the single ongoing outage for a monitor, if any.
func (s *Store) GetActiveOutage(monitorID string) (*Outage, error) {
	row := s.db.QueryRow(s.rebind(`
		SELECT id, monitor_id, started_at, ended_at, initial_error, last_error
		FROM outages WHERE monitor_id = ? AND ended_at IS NULL`), monitorID)
	o, err := scanOutage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOutagesOverlapping returns outages for monitorID that overlap
// [rangeStart, rangeEnd) — used by the daily rollup and by overview
// analytics to build downtime intervals.
func (s *Store) GetOutagesOverlapping(monitorID string, rangeStart, rangeEnd int64) ([]Outage, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT id, monitor_id, started_at, ended_at, initial_error, last_error
		FROM outages
		WHERE monitor_id = ? AND started_at < ? AND (ended_at IS NULL OR ended_at > ?)
		ORDER BY started_at ASC`), monitorID, rangeEnd, rangeStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Outage
	for rows.Next() {
		o, err := scanOutage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListOutages is a keyset-paginated listing (spec §4.9 Outage listing),
// bounded to [rangeStart, rangeEnd) by started_at, ordered id DESC.
func (s *Store) ListOutages(rangeStart, rangeEnd int64, beforeID int64, limit int) ([]Outage, error) {
	query := `
		SELECT id, monitor_id, started_at, ended_at, initial_error, last_error
		FROM outages
		WHERE started_at >= ? AND started_at < ?`
	args := []any{rangeStart, rangeEnd}
	if beforeID > 0 {
		query += ` AND id < ?`
		args = append(args, beforeID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Outage
	for rows.Next() {
		o, err := scanOutage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListOutagesForMonitor is a keyset-paginated per-monitor listing (spec
// §4.9 Outage listing, used by GET .../monitors/{id}/outages), bounded to
// [rangeStart, rangeEnd) by started_at, ordered id DESC.
func (s *Store) ListOutagesForMonitor(monitorID string, rangeStart, rangeEnd int64, beforeID int64, limit int) ([]Outage, error) {
	query := `
		SELECT id, monitor_id, started_at, ended_at, initial_error, last_error
		FROM outages
		WHERE monitor_id = ? AND started_at >= ? AND started_at < ?`
	args := []any{monitorID, rangeStart, rangeEnd}
	if beforeID > 0 {
		query += ` AND id < ?`
		args = append(args, beforeID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Outage
	for rows.Next() {
		o, err := scanOutage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetResolvedOutagesInRange returns outages that ended within
// [rangeStart, rangeEnd), used for MTTR computation.
func (s *Store) GetResolvedOutagesInRange(monitorID string, rangeStart, rangeEnd int64) ([]Outage, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT id, monitor_id, started_at, ended_at, initial_error, last_error
		FROM outages
		WHERE monitor_id = ? AND ended_at IS NOT NULL AND ended_at >= ? AND ended_at < ?`),
		monitorID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Outage
	for rows.Next() {
		o, err := scanOutage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountNewOutagesInRange counts outages started within [rangeStart, rangeEnd).
func (s *Store) CountNewOutagesInRange(monitorID string, rangeStart, rangeEnd int64) (int, error) {
	var n int
	err := s.db.QueryRow(s.rebind(`
		SELECT COUNT(*) FROM outages WHERE monitor_id = ? AND started_at >= ? AND started_at < ?`),
		monitorID, rangeStart, rangeEnd).Scan(&n)
	return n, err
}
