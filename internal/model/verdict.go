package model

import "time"

// VerdictLabel classifies the synthesized outcome for a claim.
type VerdictLabel string

const (
	LabelTrue       VerdictLabel = "true"
	LabelFalse      VerdictLabel = "false"
	LabelMisleading VerdictLabel = "misleading"
	LabelUnverified VerdictLabel = "unverified"
)

// CredibilityVerdict is the synthesized outcome for a claim at a point in
// time. Verdict history per fingerprint is append-only and ordered by
// GeneratedAt; the newest entry supersedes prior ones as the current verdict.
type CredibilityVerdict struct {
	ClaimID             string           `json:"claim_id"`
	Fingerprint         string           `json:"fingerprint"`
	Label               VerdictLabel     `json:"label"`
	AggregateScore      float64          `json:"aggregate_score"`
	AggregateConfidence float64          `json:"aggregate_confidence"`
	ContributingResults []VerifierResult `json:"contributing_results"`
	Explanation         []string         `json:"explanation,omitempty"`
	GeneratedAt         time.Time        `json:"generated_at"`
}
