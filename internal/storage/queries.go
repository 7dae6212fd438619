package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/veristat/veristat/internal/model"
)

// RegisterQuery tracks a claim for follow-up. If the fingerprint is
// already tracked, in any state, the existing row is kept.
func (s *Store) RegisterQuery(q model.UnsolvedQuery) error {
	_, err := s.db.Exec(
		`INSERT INTO unsolved_queries (fingerprint, claim_id, first_seen_at, last_checked_at, check_count, status)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO NOTHING`,
		q.Fingerprint, q.ClaimID, q.FirstSeenAt, q.LastCheckedAt, q.CheckCount, string(q.Status),
	)
	if err != nil {
		return fmt.Errorf("register query: %w", err)
	}
	return nil
}

// GetQuery loads a tracked query by fingerprint.
func (s *Store) GetQuery(fingerprint string) (model.UnsolvedQuery, bool, error) {
	var (
		q      model.UnsolvedQuery
		status string
	)
	err := s.db.QueryRow(
		`SELECT fingerprint, claim_id, first_seen_at, last_checked_at, check_count, status
		 FROM unsolved_queries WHERE fingerprint = ?`,
		fingerprint,
	).Scan(&q.Fingerprint, &q.ClaimID, &q.FirstSeenAt, &q.LastCheckedAt, &q.CheckCount, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UnsolvedQuery{}, false, nil
	}
	if err != nil {
		return model.UnsolvedQuery{}, false, fmt.Errorf("get query: %w", err)
	}
	q.Status = model.QueryStatus(status)
	return q, true, nil
}

// ListPendingQueries returns every query still awaiting resolution.
func (s *Store) ListPendingQueries() ([]model.UnsolvedQuery, error) {
	rows, err := s.db.Query(
		`SELECT fingerprint, claim_id, first_seen_at, last_checked_at, check_count, status
		 FROM unsolved_queries WHERE status = ? ORDER BY last_checked_at ASC`,
		string(model.QueryPending),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending queries: %w", err)
	}
	defer rows.Close()

	var out []model.UnsolvedQuery
	for rows.Next() {
		var (
			q      model.UnsolvedQuery
			status string
		)
		if err := rows.Scan(&q.Fingerprint, &q.ClaimID, &q.FirstSeenAt, &q.LastCheckedAt, &q.CheckCount, &status); err != nil {
			return nil, fmt.Errorf("list pending queries: %w", err)
		}
		q.Status = model.QueryStatus(status)
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpdateQuery writes back a query's progress. Only rows still pending
// can change; terminal rows are immutable.
func (s *Store) UpdateQuery(q model.UnsolvedQuery) error {
	res, err := s.db.Exec(
		`UPDATE unsolved_queries SET last_checked_at = ?, check_count = ?, status = ?
		 WHERE fingerprint = ? AND status = ?`,
		q.LastCheckedAt, q.CheckCount, string(q.Status),
		q.Fingerprint, string(model.QueryPending),
	)
	if err != nil {
		return fmt.Errorf("update query: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update query: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update query %s: not pending", q.Fingerprint)
	}
	return nil
}
