package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/veristat/veristat/internal/model"
)

// SaveClaim records a claim keyed by fingerprint. Resubmissions of the
// same fingerprint keep the original row.
func (s *Store) SaveClaim(c model.Claim) error {
	_, err := s.db.Exec(
		`INSERT INTO claims (fingerprint, id, text, submitted_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO NOTHING`,
		c.Fingerprint, c.ID, c.Text, c.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("save claim: %w", err)
	}
	return nil
}

// GetClaim loads a claim by fingerprint. Returns ok=false when unknown.
func (s *Store) GetClaim(fingerprint string) (model.Claim, bool, error) {
	var c model.Claim
	err := s.db.QueryRow(
		`SELECT fingerprint, id, text, submitted_at FROM claims WHERE fingerprint = ?`,
		fingerprint,
	).Scan(&c.Fingerprint, &c.ID, &c.Text, &c.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Claim{}, false, nil
	}
	if err != nil {
		return model.Claim{}, false, fmt.Errorf("get claim: %w", err)
	}
	return c, true, nil
}
