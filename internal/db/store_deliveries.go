package db

// RecordDelivery inserts a delivery attempt guarded by the (event_key,
// channel_id) uniqueness invariant (I6): if a row for this pair already
// exists, the insert is skipped and ok=false is returned. The notifier
// calls this BEFORE dispatching the webhook, with status "pending", so the
// insert itself is the claim on this (event, channel) pair — only the
// caller that wins the race ever sends the HTTP request, even across
// horizontally-scaled notify.Service replicas racing the same retried
// event. The winner later calls UpdateDeliveryStatus once the send
// completes.
func (s *Store) RecordDelivery(d NotificationDelivery) (ok bool, err error) {
	res, err := s.db.Exec(s.rebind(`
		INSERT INTO notification_deliveries (event_key, channel_id, status, http_status, error, created_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM notification_deliveries WHERE event_key = ? AND channel_id = ?)`),
		d.EventKey, d.ChannelID, d.Status, d.HTTPStatus, d.Error, d.CreatedAt,
		d.EventKey, d.ChannelID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateDeliveryStatus transitions a claimed delivery row to its final
// outcome (success/failed) once the webhook send has actually completed.
// Used together with RecordDelivery's insert-first claim so the HTTP send
// itself only ever happens once per (event_key, channel_id), even across
// horizontally-scaled notify.Service replicas racing the same event.
func (s *Store) UpdateDeliveryStatus(eventKey, channelID, status string, httpStatus *int, errMsg string) error {
	_, err := s.db.Exec(s.rebind(`
		UPDATE notification_deliveries SET status = ?, http_status = ?, error = ?
		WHERE event_key = ? AND channel_id = ?`),
		status, httpStatus, errMsg, eventKey, channelID,
	)
	return err
}

// ListDeliveries returns delivery attempts for an event, most recent first.
func (s *Store) ListDeliveries(eventKey string) ([]NotificationDelivery, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT id, event_key, channel_id, status, http_status, error, created_at
		FROM notification_deliveries WHERE event_key = ? ORDER BY created_at DESC`), eventKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NotificationDelivery
	for rows.Next() {
		var d NotificationDelivery
		if err := rows.Scan(&d.ID, &d.EventKey, &d.ChannelID, &d.Status, &d.HTTPStatus, &d.Error, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
