package db

import "database/sql"

// GetSetting reads one operator-tunable override by key, teacher's
// settings(key,value) shape (manager.go's GetSetting calls). ok is false
// when the key has never been written, letting callers fall through to the
// config-file default.
func (s *Store) GetSetting(key string) (value string, ok bool, err error) {
	row := s.db.QueryRow(s.rebind(`SELECT value FROM settings WHERE key = ?`), key)
	err = row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting upserts one key/value override.
func (s *Store) SetSetting(key, value string) error {
	if s.IsPostgres() {
		_, err := s.db.Exec(s.rebind(`
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value`), key, value)
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

// ListSettings returns every stored override, keyed by name.
func (s *Store) ListSettings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
