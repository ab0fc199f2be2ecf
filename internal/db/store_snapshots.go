package db

import "database/sql"

// WriteSnapshot upserts the cached public payload for the given key (spec
// §4.8). There is exactly one live key in this service ("status"), but the
// table is keyed for forward compatibility with multiple status pages.
func (s *Store) WriteSnapshot(key string, generatedAt int64, bodyJSON string, updatedAt int64) error {
	if s.IsPostgres() {
		_, err := s.db.Exec(s.rebind(`
			INSERT INTO public_snapshots (key, generated_at, body_json, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (key) DO UPDATE SET generated_at=EXCLUDED.generated_at,
				body_json=EXCLUDED.body_json, updated_at=EXCLUDED.updated_at`),
			key, generatedAt, bodyJSON, updatedAt)
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO public_snapshots (key, generated_at, body_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET generated_at=excluded.generated_at,
			body_json=excluded.body_json, updated_at=excluded.updated_at`,
		key, generatedAt, bodyJSON, updatedAt)
	return err
}

// ReadSnapshot fetches the stored payload for key, or (Snapshot{}, false) if
// none has ever been written. Staleness is judged by the caller (the
// snapshot-store component), not here.
func (s *Store) ReadSnapshot(key string) (Snapshot, bool, error) {
	row := s.db.QueryRow(s.rebind(`SELECT key, generated_at, body_json, updated_at FROM public_snapshots WHERE key = ?`), key)
	var snap Snapshot
	err := row.Scan(&snap.Key, &snap.GeneratedAt, &snap.PayloadJSON, &snap.UpdatedAt)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}
