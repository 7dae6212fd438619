package model

import "time"

// RejectionReason is the machine-readable reason attached to a rejected
// feedback submission. Rejections are control flow, not failures.
type RejectionReason string

const (
	ReasonRateLimited          RejectionReason = "rate_limited"
	ReasonManipulationDetected RejectionReason = "manipulation_detected"
	ReasonReputationTooLow     RejectionReason = "reputation_too_low"
)

// FeedbackEvent is the immutable record of one trust-gate decision.
// Accepted events are the only ones eligible to feed the synthesizer bias.
type FeedbackEvent struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	ClaimID     string          `json:"claim_id"`
	Fingerprint string          `json:"fingerprint"`
	Text        string          `json:"text"`
	Rating      int             `json:"rating"`
	Accepted    bool            `json:"accepted"`
	Reason      RejectionReason `json:"reason,omitempty"`
	Quality     float64         `json:"quality,omitempty"`
	DecidedAt   time.Time       `json:"decided_at"`
}

// UserReputation tracks a user's standing with the trust gate. Score is
// bounded to [0,100] under every sequence of decisions; the window fields
// back the per-user rate limit. Mutated only by the trust gate.
type UserReputation struct {
	UserID           string    `json:"user_id"`
	Score            float64   `json:"score"`
	TotalFeedback    int       `json:"total_feedback"`
	RejectedFeedback int       `json:"rejected_feedback"`
	LastWindowStart  time.Time `json:"last_window_start"`
	RequestsInWindow int       `json:"requests_in_window"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ClampScore bounds s to the valid reputation range.
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
