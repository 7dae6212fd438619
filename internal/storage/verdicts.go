package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/veristat/veristat/internal/model"
)

// AppendVerdict adds a verdict to the claim's history. History is
// append-only; earlier rows are never rewritten.
func (s *Store) AppendVerdict(v model.CredibilityVerdict) error {
	contributing, err := json.Marshal(v.ContributingResults)
	if err != nil {
		return fmt.Errorf("encode contributing results: %w", err)
	}
	explanation, err := json.Marshal(v.Explanation)
	if err != nil {
		return fmt.Errorf("encode explanation: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO verdicts (claim_id, fingerprint, label, aggregate_score, aggregate_confidence, contributing, explanation, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ClaimID, v.Fingerprint, string(v.Label), v.AggregateScore, v.AggregateConfidence,
		string(contributing), string(explanation), v.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("append verdict: %w", err)
	}
	return nil
}

// CurrentVerdict returns the most recent verdict for a fingerprint, or
// ok=false when the claim has never been assessed.
func (s *Store) CurrentVerdict(fingerprint string) (model.CredibilityVerdict, bool, error) {
	row := s.db.QueryRow(
		`SELECT claim_id, fingerprint, label, aggregate_score, aggregate_confidence, contributing, explanation, generated_at
		 FROM verdicts WHERE fingerprint = ? ORDER BY seq DESC LIMIT 1`,
		fingerprint,
	)
	v, err := scanVerdict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CredibilityVerdict{}, false, nil
	}
	if err != nil {
		return model.CredibilityVerdict{}, false, fmt.Errorf("current verdict: %w", err)
	}
	return v, true, nil
}

// VerdictHistory returns all verdicts for a fingerprint, oldest first.
func (s *Store) VerdictHistory(fingerprint string) ([]model.CredibilityVerdict, error) {
	rows, err := s.db.Query(
		`SELECT claim_id, fingerprint, label, aggregate_score, aggregate_confidence, contributing, explanation, generated_at
		 FROM verdicts WHERE fingerprint = ? ORDER BY seq ASC`,
		fingerprint,
	)
	if err != nil {
		return nil, fmt.Errorf("verdict history: %w", err)
	}
	defer rows.Close()

	var out []model.CredibilityVerdict
	for rows.Next() {
		v, err := scanVerdict(rows)
		if err != nil {
			return nil, fmt.Errorf("verdict history: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerdict(r rowScanner) (model.CredibilityVerdict, error) {
	var (
		v            model.CredibilityVerdict
		label        string
		contributing string
		explanation  string
	)
	if err := r.Scan(&v.ClaimID, &v.Fingerprint, &label, &v.AggregateScore, &v.AggregateConfidence, &contributing, &explanation, &v.GeneratedAt); err != nil {
		return model.CredibilityVerdict{}, err
	}
	v.Label = model.VerdictLabel(label)
	if err := json.Unmarshal([]byte(contributing), &v.ContributingResults); err != nil {
		return model.CredibilityVerdict{}, fmt.Errorf("decode contributing results: %w", err)
	}
	if err := json.Unmarshal([]byte(explanation), &v.Explanation); err != nil {
		return model.CredibilityVerdict{}, fmt.Errorf("decode explanation: %w", err)
	}
	return v, nil
}
