package db

import "database/sql"

// CreateNotificationChannel inserts a webhook channel.
func (s *Store) CreateNotificationChannel(c NotificationChannel) (NotificationChannel, error) {
	if c.ID == "" {
		c.ID = genID("chan")
	}
	if c.Type == "" {
		c.Type = "webhook"
	}
	_, err := s.db.Exec(s.rebind(`
		INSERT INTO notification_channels (id, name, type, config_json, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		c.ID, c.Name, c.Type, c.ConfigJSON, c.IsActive, c.CreatedAt)
	if err != nil {
		return NotificationChannel{}, err
	}
	return c, nil
}

func scanChannel(row interface{ Scan(...any) error }) (NotificationChannel, error) {
	var c NotificationChannel
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.ConfigJSON, &c.IsActive, &c.CreatedAt)
	return c, err
}

// GetNotificationChannel fetches one channel by id.
func (s *Store) GetNotificationChannel(id string) (NotificationChannel, error) {
	row := s.db.QueryRow(s.rebind(`SELECT id, name, type, config_json, is_active, created_at FROM notification_channels WHERE id = ?`), id)
	c, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return NotificationChannel{}, ErrNotFound
	}
	return c, err
}

// ListNotificationChannels returns all channels.
func (s *Store) ListNotificationChannels() ([]NotificationChannel, error) {
	rows, err := s.db.Query(`SELECT id, name, type, config_json, is_active, created_at FROM notification_channels ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NotificationChannel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListActiveNotificationChannels returns channels eligible for dispatch.
func (s *Store) ListActiveNotificationChannels() ([]NotificationChannel, error) {
	rows, err := s.db.Query(`SELECT id, name, type, config_json, is_active, created_at FROM notification_channels WHERE is_active = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NotificationChannel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateNotificationChannel overwrites name/config_json/is_active.
func (s *Store) UpdateNotificationChannel(c NotificationChannel) error {
	res, err := s.db.Exec(s.rebind(`
		UPDATE notification_channels SET name=?, config_json=?, is_active=? WHERE id=?`),
		c.Name, c.ConfigJSON, c.IsActive, c.ID)
	return checkRowsAffected(res, err)
}

// DeleteNotificationChannel removes a channel.
func (s *Store) DeleteNotificationChannel(id string) error {
	res, err := s.db.Exec(s.rebind(`DELETE FROM notification_channels WHERE id=?`), id)
	return checkRowsAffected(res, err)
}
