package db

import "database/sql"

// CreateMaintenanceWindow inserts a maintenance window and its monitor
// links in one transaction. Spec §3: starts_at < ends_at and >= 1 monitor
// link are enforced by the write-API validation layer before this call.
func (s *Store) CreateMaintenanceWindow(mw MaintenanceWindow) (MaintenanceWindow, error) {
	if mw.ID == "" {
		mw.ID = genID("maint")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return MaintenanceWindow{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.rebind(`
		INSERT INTO maintenance_windows (id, title, message, starts_at, ends_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		mw.ID, mw.Title, mw.Message, mw.StartsAt, mw.EndsAt, mw.CreatedAt,
	); err != nil {
		return MaintenanceWindow{}, err
	}
	for _, mid := range mw.MonitorIDs {
		if _, err := tx.Exec(s.rebind(`INSERT INTO maintenance_monitors (maintenance_id, monitor_id) VALUES (?, ?)`), mw.ID, mid); err != nil {
			return MaintenanceWindow{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return MaintenanceWindow{}, err
	}
	return mw, nil
}

func (s *Store) monitorIDsForMaintenance(id string) ([]string, error) {
	rows, err := s.db.Query(s.rebind(`SELECT monitor_id FROM maintenance_monitors WHERE maintenance_id = ?`), id)
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

func scanMaintenance(row interface{ Scan(...any) error }) (MaintenanceWindow, error) {
	var mw MaintenanceWindow
	var message sql.NullString
	err := row.Scan(&mw.ID, &mw.Title, &message, &mw.StartsAt, &mw.EndsAt, &mw.CreatedAt)
	if err != nil {
		return MaintenanceWindow{}, err
	}
	mw.Message = message.String
	return mw, nil
}

// GetMaintenanceWindow fetches one window with its monitor links.
func (s *Store) GetMaintenanceWindow(id string) (MaintenanceWindow, error) {
	row := s.db.QueryRow(s.rebind(`SELECT id, title, message, starts_at, ends_at, created_at FROM maintenance_windows WHERE id = ?`), id)
	mw, err := scanMaintenance(row)
	if err == sql.ErrNoRows {
		return MaintenanceWindow{}, ErrNotFound
	}
	if err != nil {
		return MaintenanceWindow{}, err
	}
	mw.MonitorIDs, err = s.monitorIDsForMaintenance(id)
	return mw, err
}

// ListMaintenanceWindows returns all windows, newest first.
func (s *Store) ListMaintenanceWindows() ([]MaintenanceWindow, error) {
	rows, err := s.db.Query(`SELECT id, title, message, starts_at, ends_at, created_at FROM maintenance_windows ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MaintenanceWindow
	for rows.Next() {
		mw, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ids, err := s.monitorIDsForMaintenance(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].MonitorIDs = ids
	}
	return out, nil
}

// ListActiveMaintenanceWindows returns windows active at `now`
// (starts_at <= now < ends_at).
func (s *Store) ListActiveMaintenanceWindows(now int64) ([]MaintenanceWindow, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT id, title, message, starts_at, ends_at, created_at
		FROM maintenance_windows WHERE starts_at <= ? AND ends_at > ?
		ORDER BY starts_at ASC`), now, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MaintenanceWindow
	for rows.Next() {
		mw, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ids, err := s.monitorIDsForMaintenance(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].MonitorIDs = ids
	}
	return out, nil
}

// ListUpcomingMaintenanceWindows returns up to `limit` windows that start
// after `now`, soonest first.
func (s *Store) ListUpcomingMaintenanceWindows(now int64, limit int) ([]MaintenanceWindow, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT id, title, message, starts_at, ends_at, created_at
		FROM maintenance_windows WHERE starts_at > ? ORDER BY starts_at ASC LIMIT ?`), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MaintenanceWindow
	for rows.Next() {
		mw, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mw)
	}
	return out, rows.Err()
}

// ActiveMaintenanceMonitorSet returns the set of monitor ids under active
// maintenance at `now`, used by the scheduler to suppress notifications and
// by the public builder to override displayed status.
func (s *Store) ActiveMaintenanceMonitorSet(now int64) (map[string]bool, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT DISTINCT mm.monitor_id
		FROM maintenance_monitors mm
		JOIN maintenance_windows mw ON mw.id = mm.maintenance_id
		WHERE mw.starts_at <= ? AND mw.ends_at > ?`), now, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var mid string
		if err := rows.Scan(&mid); err != nil {
			return nil, err
		}
		out[mid] = true
	}
	return out, rows.Err()
}

// UpdateMaintenanceWindow overwrites title/message/starts_at/ends_at.
func (s *Store) UpdateMaintenanceWindow(mw MaintenanceWindow) error {
	res, err := s.db.Exec(s.rebind(`
		UPDATE maintenance_windows SET title=?, message=?, starts_at=?, ends_at=? WHERE id=?`),
		mw.Title, mw.Message, mw.StartsAt, mw.EndsAt, mw.ID)
	return checkRowsAffected(res, err)
}

// DeleteMaintenanceWindow removes a window and its links (cascade).
func (s *Store) DeleteMaintenanceWindow(id string) error {
	res, err := s.db.Exec(s.rebind(`DELETE FROM maintenance_windows WHERE id=?`), id)
	return checkRowsAffected(res, err)
}
