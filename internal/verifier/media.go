package verifier

import (
	"context"
	"regexp"

	"github.com/veristat/veristat/internal/llm"
	"github.com/veristat/veristat/internal/model"
	"github.com/veristat/veristat/internal/sources"
)

var (
	mediaURLPattern = regexp.MustCompile(`https?://\S+\.(?:jpe?g|png|gif|webp|mp4|mov|webm)\b`)
	// Provenance red flags in how the claim talks about its media.
	manipulationPattern = regexp.MustCompile(`(?i)\b(deepfake|photoshopped|ai.generated|face.?swap|doctored|fabricated (image|video))\b`)
)

const mediaInstruction = `Assess only the provenance plausibility of media referenced by this claim
(whether the described photo/video is likely authentic and correctly attributed).
Do not assess the claim's overall truth.`

// MediaAuthenticity assesses provenance signals around media the claim
// references. It never decodes media; it probes reachability of referenced
// files and, when a scorer is available, asks for a provenance judgment on
// the claim's description of the media.
type MediaAuthenticity struct {
	client *sources.Client
	scorer llm.Scorer
}

// NewMediaAuthenticity builds the media verifier.
func NewMediaAuthenticity(client *sources.Client, scorer llm.Scorer) *MediaAuthenticity {
	return &MediaAuthenticity{client: client, scorer: scorer}
}

// Name returns the verifier name.
func (v *MediaAuthenticity) Name() string { return "media_authenticity" }

// Verify scores media provenance. Claims that reference no media get a
// neutral score at near-zero confidence so they barely move the aggregate.
func (v *MediaAuthenticity) Verify(ctx context.Context, claim model.Claim) (model.VerifierResult, error) {
	mediaURLs := mediaURLPattern.FindAllString(claim.Text, -1)
	flagged := manipulationPattern.MatchString(claim.Text)

	if len(mediaURLs) == 0 && !flagged {
		r := model.OKResult(v.Name(), 0.5, 0.05, nil)
		r.Detail = "claim references no media"
		return r, nil
	}

	score := 0.7
	confidence := 0.35
	var evidence []model.EvidenceRef

	if flagged {
		// The claim itself disputes its media's authenticity.
		score = 0.3
		confidence = 0.5
	}

	for _, u := range mediaURLs {
		probe, err := v.client.Probe(ctx, u)
		if err != nil {
			if IsTransient(err) {
				return model.VerifierResult{}, err
			}
			score -= 0.1
			continue
		}
		if probe.Reachable {
			evidence = append(evidence, model.EvidenceRef{SourceRef: u, Weight: probe.Authority.Weight()})
			confidence += 0.1
		} else {
			// Dead media links are a weak forgery signal.
			score -= 0.2
		}
	}

	if v.scorer != nil {
		mScore, mConf, err := v.scorer.ScoreClaim(ctx, mediaInstruction, claim.Text)
		if err != nil {
			return model.VerifierResult{}, err
		}
		// Blend, trusting whichever side is more confident.
		score = (score*confidence + mScore*mConf) / (confidence + mConf)
		if mConf > confidence {
			confidence = mConf
		}
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

	return model.OKResult(v.Name(), score, confidence, evidence), nil
}
