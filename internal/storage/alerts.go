package storage

import (
	"fmt"

	"github.com/veristat/veristat/internal/model"
)

// RecordDispatch appends one delivery attempt outcome.
func (s *Store) RecordDispatch(d model.AlertDispatch) error {
	_, err := s.db.Exec(
		`INSERT INTO alert_dispatches (claim_id, channel, batch_id, attempt, delivered_at, failed_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ClaimID, string(d.Channel), d.BatchID, d.Attempt, d.DeliveredAt, d.FailedAt, d.Error,
	)
	if err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	return nil
}

// BatchDispatches returns the recorded outcomes for one batch.
func (s *Store) BatchDispatches(batchID string) ([]model.AlertDispatch, error) {
	rows, err := s.db.Query(
		`SELECT claim_id, channel, batch_id, attempt, delivered_at, failed_at, error
		 FROM alert_dispatches WHERE batch_id = ? ORDER BY seq ASC`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("batch dispatches: %w", err)
	}
	defer rows.Close()

	var out []model.AlertDispatch
	for rows.Next() {
		var (
			d       model.AlertDispatch
			channel string
		)
		if err := rows.Scan(&d.ClaimID, &channel, &d.BatchID, &d.Attempt, &d.DeliveredAt, &d.FailedAt, &d.Error); err != nil {
			return nil, fmt.Errorf("batch dispatches: %w", err)
		}
		d.Channel = model.AlertChannel(channel)
		out = append(out, d)
	}
	return out, rows.Err()
}
