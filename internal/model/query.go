package model

import "time"

// QueryStatus is the lifecycle state of an unsolved query.
// pending -> resolved and pending -> abandoned are the only transitions;
// both terminal states are immutable.
type QueryStatus string

const (
	QueryPending   QueryStatus = "pending"
	QueryResolved  QueryStatus = "resolved"
	QueryAbandoned QueryStatus = "abandoned"
)

// UnsolvedQuery tracks a claim whose verdict confidence never cleared the
// resolution threshold. The monitor re-checks pending queries on a backoff
// that grows with CheckCount and abandons them past the configured maximum.
type UnsolvedQuery struct {
	ClaimID       string      `json:"claim_id"`
	Fingerprint   string      `json:"fingerprint"`
	FirstSeenAt   time.Time   `json:"first_seen_at"`
	LastCheckedAt time.Time   `json:"last_checked_at"`
	CheckCount    int         `json:"check_count"`
	Status        QueryStatus `json:"status"`
}
