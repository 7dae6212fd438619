package model

import (
	"errors"
	"strings"
	"time"
)

// ErrMissingFingerprint is the only fatal input error: a claim without a
// fingerprint cannot be deduplicated or tracked, so it is rejected outright.
var ErrMissingFingerprint = errors.New("claim has no fingerprint")

// ErrEmptyClaim rejects submissions with no verifiable content.
var ErrEmptyClaim = errors.New("claim text is empty")

// Claim is a normalized, deduplicated unit of content text submitted for
// verification. Identity is the fingerprint (content hash of the normalized
// text); repeated submissions of the same text share one fingerprint.
// A claim is immutable once created.
type Claim struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
	Fingerprint string    `json:"fingerprint"`
}

// Validate checks structural validity of the claim.
func (c Claim) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return ErrEmptyClaim
	}
	if c.Fingerprint == "" {
		return ErrMissingFingerprint
	}
	return nil
}
