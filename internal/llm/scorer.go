// Package llm exposes a generative model as an opaque scoring function.
// The engine never prompts models directly; verifiers that want a model
// opinion receive a Scorer and treat it as one signal among several.
package llm

import (
	"context"
	"fmt"

	"github.com/veristat/veristat/internal/model"
)

// Scorer produces a credibility score and a confidence for a claim text.
// Both values are in [0,1]. Implementations must be safe for concurrent use.
type Scorer interface {
	Name() string
	ScoreClaim(ctx context.Context, instruction, claimText string) (score, confidence float64, err error)
}

// NewScorer builds the configured scorer. An empty provider disables model
// scoring; callers must tolerate a nil Scorer.
func NewScorer(cfg model.ModelConfig) (Scorer, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIScorer(cfg)
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
}
