package db

import "database/sql"

// CreateIncident inserts an incident plus its monitor links in one
// transaction. Spec §4.10: creation disallows status "resolved" and
// requires at least one monitor link — both are enforced by the caller
// (the write-API layer) before this is invoked; the store only persists.
func (s *Store) CreateIncident(inc Incident) (Incident, error) {
	if inc.ID == "" {
		inc.ID = genID("inc")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return Incident{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.rebind(`
		INSERT INTO incidents (id, title, status, impact, message, started_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		inc.ID, inc.Title, inc.Status, inc.Impact, inc.Message, inc.StartedAt, inc.ResolvedAt,
	); err != nil {
		return Incident{}, err
	}
	for _, mid := range inc.MonitorIDs {
		if _, err := tx.Exec(s.rebind(`INSERT INTO incident_monitors (incident_id, monitor_id) VALUES (?, ?)`), inc.ID, mid); err != nil {
			return Incident{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Incident{}, err
	}
	return inc, nil
}

func (s *Store) monitorIDsForIncident(id string) ([]string, error) {
	rows, err := s.db.Query(s.rebind(`SELECT monitor_id FROM incident_monitors WHERE incident_id = ?`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var mid string
		if err := rows.Scan(&mid); err != nil {
			return nil, err
		}
		out = append(out, mid)
	}
	return out, rows.Err()
}

func scanIncident(row interface{ Scan(...any) error }) (Incident, error) {
	var inc Incident
	var message sql.NullString
	err := row.Scan(&inc.ID, &inc.Title, &inc.Status, &inc.Impact, &message, &inc.StartedAt, &inc.ResolvedAt)
	if err != nil {
		return Incident{}, err
	}
	inc.Message = message.String
	return inc, nil
}

// GetIncident fetches one incident with its linked monitor ids.
func (s *Store) GetIncident(id string) (Incident, error) {
	row := s.db.QueryRow(s.rebind(`SELECT id, title, status, impact, message, started_at, resolved_at FROM incidents WHERE id = ?`), id)
	inc, err := scanIncident(row)
	if err == sql.ErrNoRows {
		return Incident{}, ErrNotFound
	}
	if err != nil {
		return Incident{}, err
	}
	inc.MonitorIDs, err = s.monitorIDsForIncident(id)
	return inc, err
}

// ListUnresolvedIncidents returns incidents with status != resolved, newest
// first, used by the public status builder and admin listing.
func (s *Store) ListUnresolvedIncidents(limit int) ([]Incident, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT id, title, status, impact, message, started_at, resolved_at
		FROM incidents WHERE status != 'resolved' ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanIncidentsWithLinks(rows)
}

// ListIncidents returns paginated incidents: active ones first, then
// resolved ones, each group newest started_at first. cursor is a row
// offset into that ordering (0 starts from the top).
func (s *Store) ListIncidents(limit int, cursor int64, resolvedOnly bool) ([]Incident, error) {
	query := `SELECT id, title, status, impact, message, started_at, resolved_at FROM incidents`
	var args []any
	if resolvedOnly {
		query += ` WHERE status = 'resolved'`
	}
	query += ` ORDER BY (status = 'resolved') ASC, started_at DESC`
	query += ` LIMIT ?`
	args = append(args, limit)
	if cursor > 0 {
		query += ` OFFSET ?`
		args = append(args, cursor)
	}

	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanIncidentsWithLinks(rows)
}

func (s *Store) scanIncidentsWithLinks(rows *sql.Rows) ([]Incident, error) {
	var out []Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ids, err := s.monitorIDsForIncident(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].MonitorIDs = ids
	}
	return out, nil
}

// UpdateIncident overwrites title/status/impact/message.
func (s *Store) UpdateIncident(inc Incident) error {
	res, err := s.db.Exec(s.rebind(`
		UPDATE incidents SET title=?, status=?, impact=?, message=? WHERE id=?`),
		inc.Title, inc.Status, inc.Impact, inc.Message, inc.ID)
	return checkRowsAffected(res, err)
}

// ResolveIncident sets resolved_at and appends a resolution update,
// idempotently: if the incident is already resolved, it returns the
// existing resolved_at and does not write a duplicate update (R3).
func (s *Store) ResolveIncident(id string, resolvedAt int64, message string) (int64, error) {
	inc, err := s.GetIncident(id)
	if err != nil {
		return 0, err
	}
	if inc.ResolvedAt != nil {
		return *inc.ResolvedAt, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.rebind(`UPDATE incidents SET status='resolved', resolved_at=? WHERE id=? AND resolved_at IS NULL`), resolvedAt, id); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(s.rebind(`INSERT INTO incident_updates (incident_id, status, message, created_at) VALUES (?, 'resolved', ?, ?)`), id, message, resolvedAt); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return resolvedAt, nil
}

// DeleteIncident removes an incident and its links/updates (cascade).
func (s *Store) DeleteIncident(id string) error {
	res, err := s.db.Exec(s.rebind(`DELETE FROM incidents WHERE id=?`), id)
	return checkRowsAffected(res, err)
}

// CreateIncidentUpdate appends an update row.
func (s *Store) CreateIncidentUpdate(u IncidentUpdate) (IncidentUpdate, error) {
	res, err := s.db.Exec(s.rebind(`
		INSERT INTO incident_updates (incident_id, status, message, created_at) VALUES (?, ?, ?, ?)`),
		u.IncidentID, u.Status, u.Message, u.CreatedAt)
	if err != nil {
		return IncidentUpdate{}, err
	}
	if id, err := res.LastInsertId(); err == nil {
		u.ID = id
	}
	return u, nil
}

// GetIncidentUpdates returns updates in chronological order.
func (s *Store) GetIncidentUpdates(incidentID string) ([]IncidentUpdate, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT id, incident_id, status, message, created_at FROM incident_updates
		WHERE incident_id = ? ORDER BY created_at ASC`), incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IncidentUpdate
	for rows.Next() {
		var u IncidentUpdate
		var status sql.NullString
		if err := rows.Scan(&u.ID, &u.IncidentID, &status, &u.Message, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Status = status.String
		out = append(out, u)
	}
	return out, rows.Err()
}
