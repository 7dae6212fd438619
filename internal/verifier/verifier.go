// Package verifier holds the independent checks that score a claim.
// Each verifier is stateless, safe to call concurrently, and returns a
// partial score with its own confidence; the orchestrator owns timeouts,
// retries, and failure classification.
package verifier

import (
	"context"
	"errors"

	"github.com/veristat/veristat/internal/llm"
	"github.com/veristat/veristat/internal/model"
	"github.com/veristat/veristat/internal/sources"
)

// Verifier is one independent check on a claim.
type Verifier interface {
	Name() string
	Verify(ctx context.Context, claim model.Claim) (model.VerifierResult, error)
}

// IsTransient reports whether err is worth one retry.
func IsTransient(err error) bool {
	var te *sources.TransientError
	return errors.As(err, &te)
}

// DefaultSet builds the standard verifier set. A nil scorer degrades the
// model-assisted verifiers to their heuristics.
func DefaultSet(client *sources.Client, scorer llm.Scorer) []Verifier {
	return []Verifier{
		NewSourceCredibility(client, DefaultLookups()),
		NewTemporalConsistency(),
		NewMediaAuthenticity(client, scorer),
		NewSocialConsensus(scorer),
	}
}
