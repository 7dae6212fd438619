package verifier

import (
	"context"
	"regexp"
	"strings"

	"github.com/veristat/veristat/internal/llm"
	"github.com/veristat/veristat/internal/model"
)

var coordinationPattern = regexp.MustCompile(`(?i)\b(share before (it.s|this is) deleted|they don.t want you to know|wake up|do your own research|msm won.t (tell|show) you|spread the word)\b`)

var institutionMarkers = []string{
	"according to", "researchers", "study", "official", "spokesperson",
	"peer-reviewed", "journal", "university", "agency",
}

const consensusInstruction = `Estimate the current expert and fact-checker consensus on this claim:
1 means broad independent agreement the claim holds, 0 means broad agreement it does not.`

// SocialConsensus estimates how much independent agreement exists around a
// claim. The model scorer is the primary signal; text heuristics for
// coordinated-amplification language back it up and cap it.
type SocialConsensus struct {
	scorer llm.Scorer
}

// NewSocialConsensus builds the consensus verifier.
func NewSocialConsensus(scorer llm.Scorer) *SocialConsensus {
	return &SocialConsensus{scorer: scorer}
}

// Name returns the verifier name.
func (v *SocialConsensus) Name() string { return "social_consensus" }

// Verify scores consensus support for the claim.
func (v *SocialConsensus) Verify(ctx context.Context, claim model.Claim) (model.VerifierResult, error) {
	lower := strings.ToLower(claim.Text)

	score := 0.5
	confidence := 0.25

	for _, marker := range institutionMarkers {
		if strings.Contains(lower, marker) {
			score += 0.05
			confidence += 0.03
		}
	}
	coordinated := coordinationPattern.MatchString(claim.Text)
	if coordinated {
		score -= 0.3
		confidence += 0.15
	}

	if v.scorer != nil {
		mScore, mConf, err := v.scorer.ScoreClaim(ctx, consensusInstruction, claim.Text)
		if err != nil {
			return model.VerifierResult{}, err
		}
		score = (score*confidence + mScore*mConf) / (confidence + mConf)
		if mConf > confidence {
			confidence = mConf
		}
	}

	if coordinated && score > 0.6 {
		// Amplification language caps how supportive this check will be.
		score = 0.6
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	if confidence > 0.9 {
		confidence = 0.9
	}

	result := model.OKResult(v.Name(), score, confidence, nil)
	if coordinated {
		result.Detail = "coordinated-amplification language detected"
	}
	return result, nil
}
