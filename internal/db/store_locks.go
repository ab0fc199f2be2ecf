package db

// AcquireLock attempts to take the named lease for leaseSeconds starting at
// now. It succeeds (ok=true) when no live lease exists — i.e. the row is
// absent or its expires_at has already passed — and fails otherwise,
// implementing the conditional upsert of spec §4.4/§4.6/§5: the same row
// doubles as a fencing token across however many server processes are
// running.
func (s *Store) AcquireLock(name, holderID string, now, leaseSeconds int64) (bool, error) {
	expiresAt := now + leaseSeconds

	if s.IsPostgres() {
		res, err := s.db.Exec(s.rebind(`
			INSERT INTO locks (name, holder_id, expires_at) VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET holder_id=EXCLUDED.holder_id, expires_at=EXCLUDED.expires_at
			WHERE locks.expires_at <= ?`),
			name, holderID, expiresAt, now)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}

	res, err := s.db.Exec(`
		INSERT INTO locks (name, holder_id, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET holder_id=excluded.holder_id, expires_at=excluded.expires_at
		WHERE locks.expires_at <= ?`,
		name, holderID, expiresAt, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReleaseLock drops a lease early, letting a well-behaved holder free the
// row instead of waiting out the full lease — mainly useful in tests.
func (s *Store) ReleaseLock(name, holderID string) error {
	_, err := s.db.Exec(s.rebind(`DELETE FROM locks WHERE name = ? AND holder_id = ?`), name, holderID)
	return err
}
