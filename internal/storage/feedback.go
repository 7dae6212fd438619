package storage

import (
	"fmt"

	"github.com/veristat/veristat/internal/model"
)

// SaveFeedback records a feedback decision, accepted or not.
func (s *Store) SaveFeedback(ev model.FeedbackEvent) error {
	accepted := 0
	if ev.Accepted {
		accepted = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO feedback_events (id, user_id, claim_id, fingerprint, text, rating, accepted, reason, quality, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, ev.ClaimID, ev.Fingerprint, ev.Text, ev.Rating,
		accepted, string(ev.Reason), ev.Quality, ev.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

// AcceptedFeedback returns the accepted events for a fingerprint,
// oldest first.
func (s *Store) AcceptedFeedback(fingerprint string) ([]model.FeedbackEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, claim_id, fingerprint, text, rating, accepted, reason, quality, decided_at
		 FROM feedback_events WHERE fingerprint = ? AND accepted = 1 ORDER BY decided_at ASC`,
		fingerprint,
	)
	if err != nil {
		return nil, fmt.Errorf("accepted feedback: %w", err)
	}
	defer rows.Close()

	var out []model.FeedbackEvent
	for rows.Next() {
		var (
			ev       model.FeedbackEvent
			accepted int
			reason   string
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.ClaimID, &ev.Fingerprint, &ev.Text,
			&ev.Rating, &accepted, &reason, &ev.Quality, &ev.DecidedAt); err != nil {
			return nil, fmt.Errorf("accepted feedback: %w", err)
		}
		ev.Accepted = accepted == 1
		ev.Reason = model.RejectionReason(reason)
		out = append(out, ev)
	}
	return out, rows.Err()
}
