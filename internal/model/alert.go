package model

import "time"

// AlertChannel identifies a delivery transport for resolution alerts.
// Actual transport mechanics live with the notification collaborator.
type AlertChannel string

const (
	ChannelEmail   AlertChannel = "email"
	ChannelWebhook AlertChannel = "webhook"
	ChannelInApp   AlertChannel = "in_app"
)

// ResolutionEvent is emitted exactly once when an unsolved query resolves.
type ResolutionEvent struct {
	ClaimID     string             `json:"claim_id"`
	Fingerprint string             `json:"fingerprint"`
	Verdict     CredibilityVerdict `json:"verdict"`
	ResolvedAt  time.Time          `json:"resolved_at"`
}

// AlertDispatch is the per-channel delivery record for one resolved claim.
// Events resolved inside the same coalescing window share a BatchID.
type AlertDispatch struct {
	ClaimID     string       `json:"claim_id"`
	Channel     AlertChannel `json:"channel"`
	BatchID     string       `json:"batch_id"`
	Attempt     int          `json:"attempt"`
	DeliveredAt *time.Time   `json:"delivered_at,omitempty"`
	FailedAt    *time.Time   `json:"failed_at,omitempty"`
	Error       string       `json:"error,omitempty"`
}
