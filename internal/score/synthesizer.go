// Package score synthesizes partial verifier results into one credibility
// verdict. Synthesis is a pure function of its inputs so identical result
// sets always replay to the identical verdict; every number in the verdict
// is reconstructable from the explanation trace.
package score

import (
	"fmt"
	"sort"
	"time"

	"github.com/veristat/veristat/internal/model"
)

// Synthesizer combines verifier results under configured thresholds.
type Synthesizer struct {
	cfg model.SynthesisConfig
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(cfg model.SynthesisConfig) *Synthesizer {
	return &Synthesizer{cfg: cfg}
}

// Synthesize folds the result set into a verdict. bias, when non-nil, is a
// feedback signal in [-1,1] that shifts the aggregate score by at most the
// configured cap; it never touches the aggregate confidence. The registered
// verifier count is len(results): the orchestrator emits exactly one result
// per registered verifier, and failed verifiers dilute confidence rather
// than disappearing.
func (s *Synthesizer) Synthesize(claim model.Claim, results []model.VerifierResult, bias *float64, generatedAt time.Time) model.CredibilityVerdict {
	// Copy before sorting so the caller's slice is never mutated.
	contributing := make([]model.VerifierResult, len(results))
	copy(contributing, results)
	sortTrace(contributing)

	verdict := model.CredibilityVerdict{
		ClaimID:             claim.ID,
		Fingerprint:         claim.Fingerprint,
		ContributingResults: contributing,
		GeneratedAt:         generatedAt.UTC(),
	}

	var scoreSum, confSum float64
	usable := 0
	for _, r := range results {
		if !r.Usable() {
			continue
		}
		scoreSum += *r.Score * r.Confidence
		confSum += r.Confidence
		usable++
	}

	if usable == 0 || confSum == 0 {
		verdict.Label = model.LabelUnverified
		verdict.AggregateScore = 0.5
		verdict.AggregateConfidence = 0
		verdict.Explanation = []string{"no usable verifier results"}
		return verdict
	}

	aggScore := scoreSum / confSum
	aggConf := confSum / float64(len(results))

	verdict.Explanation = append(verdict.Explanation,
		fmt.Sprintf("score = sum(score*conf)/sum(conf) = %.4f/%.4f = %.4f over %d of %d verifiers",
			scoreSum, confSum, aggScore, usable, len(results)),
		fmt.Sprintf("confidence = sum(conf)/registered = %.4f/%d = %.4f",
			confSum, len(results), aggConf))

	if bias != nil && *bias != 0 {
		shift := clamp(*bias, -1, 1) * s.cfg.BiasCap
		aggScore = clamp(aggScore+shift, 0, 1)
		verdict.Explanation = append(verdict.Explanation,
			fmt.Sprintf("feedback bias shifted score by %+.4f", shift))
	}

	verdict.AggregateScore = clamp(aggScore, 0, 1)
	verdict.AggregateConfidence = clamp(aggConf, 0, 1)
	verdict.Label = s.label(verdict.AggregateScore, verdict.AggregateConfidence)
	verdict.Explanation = append(verdict.Explanation, fmt.Sprintf("label %s", verdict.Label))

	return verdict
}

// label applies the configured thresholds. Ties resolve toward the more
// conservative label: confidence exactly at the minimum is not enough for
// true/false, while the score boundaries themselves are inclusive.
func (s *Synthesizer) label(score, confidence float64) model.VerdictLabel {
	if confidence < s.cfg.MinConfidence {
		return model.LabelUnverified
	}
	if confidence > s.cfg.MinConfidence {
		if score >= s.cfg.TrueScoreMin {
			return model.LabelTrue
		}
		if score <= s.cfg.FalseScoreMax {
			return model.LabelFalse
		}
	}
	return model.LabelMisleading
}

// sortTrace orders contributing results by verifier name so the verdict is
// independent of result arrival order.
func sortTrace(results []model.VerifierResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].VerifierName < results[j].VerifierName
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
