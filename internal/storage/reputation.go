package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/veristat/veristat/internal/model"
)

// GetReputation loads a user's reputation. Returns ok=false for users
// that have never submitted feedback.
func (s *Store) GetReputation(userID string) (model.UserReputation, bool, error) {
	var rep model.UserReputation
	err := s.db.QueryRow(
		`SELECT user_id, score, total_feedback, rejected_feedback, last_window_start, requests_in_window, updated_at
		 FROM reputations WHERE user_id = ?`,
		userID,
	).Scan(&rep.UserID, &rep.Score, &rep.TotalFeedback, &rep.RejectedFeedback,
		&rep.LastWindowStart, &rep.RequestsInWindow, &rep.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserReputation{}, false, nil
	}
	if err != nil {
		return model.UserReputation{}, false, fmt.Errorf("get reputation: %w", err)
	}
	return rep, true, nil
}

// PutReputation inserts or replaces a user's reputation row.
func (s *Store) PutReputation(rep model.UserReputation) error {
	_, err := s.db.Exec(
		`INSERT INTO reputations (user_id, score, total_feedback, rejected_feedback, last_window_start, requests_in_window, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			score = excluded.score,
			total_feedback = excluded.total_feedback,
			rejected_feedback = excluded.rejected_feedback,
			last_window_start = excluded.last_window_start,
			requests_in_window = excluded.requests_in_window,
			updated_at = excluded.updated_at`,
		rep.UserID, rep.Score, rep.TotalFeedback, rep.RejectedFeedback,
		rep.LastWindowStart, rep.RequestsInWindow, rep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put reputation: %w", err)
	}
	return nil
}

// ListReputations returns every known reputation row.
func (s *Store) ListReputations() ([]model.UserReputation, error) {
	rows, err := s.db.Query(
		`SELECT user_id, score, total_feedback, rejected_feedback, last_window_start, requests_in_window, updated_at
		 FROM reputations ORDER BY user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list reputations: %w", err)
	}
	defer rows.Close()

	var out []model.UserReputation
	for rows.Next() {
		var rep model.UserReputation
		if err := rows.Scan(&rep.UserID, &rep.Score, &rep.TotalFeedback, &rep.RejectedFeedback,
			&rep.LastWindowStart, &rep.RequestsInWindow, &rep.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list reputations: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
