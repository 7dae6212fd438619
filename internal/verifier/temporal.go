package verifier

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/veristat/veristat/internal/model"
)

var (
	yearPattern     = regexp.MustCompile(`\b(1[6-9]\d{2}|20\d{2})\b`)
	urgencyPattern  = regexp.MustCompile(`(?i)\b(breaking|just in|happening now|moments ago|right now)\b`)
	relativePattern = regexp.MustCompile(`(?i)\b(yesterday|today|last (week|month|year)|this (week|month|year))\b`)
)

// TemporalConsistency checks the claim's internal chronology: dates that
// lie in the future, implausible spans, and urgency language attached to
// old events all reduce the score.
type TemporalConsistency struct {
	now func() time.Time
}

// NewTemporalConsistency builds the temporal verifier.
func NewTemporalConsistency() *TemporalConsistency {
	return &TemporalConsistency{now: time.Now}
}

// Name returns the verifier name.
func (v *TemporalConsistency) Name() string { return "temporal_consistency" }

// Verify scores the claim's temporal coherence. Claims without temporal
// markers get a neutral score at low confidence rather than an error.
func (v *TemporalConsistency) Verify(ctx context.Context, claim model.Claim) (model.VerifierResult, error) {
	years := extractYears(claim.Text)
	hasUrgency := urgencyPattern.MatchString(claim.Text)
	hasRelative := relativePattern.MatchString(claim.Text)

	markers := len(years)
	if hasUrgency {
		markers++
	}
	if hasRelative {
		markers++
	}
	if markers == 0 {
		r := model.OKResult(v.Name(), 0.5, 0.15, nil)
		r.Detail = "no temporal markers"
		return r, nil
	}

	score := 1.0
	var problems []string
	currentYear := v.now().Year()

	for _, y := range years {
		if y > currentYear {
			score -= 0.4
			problems = append(problems, fmt.Sprintf("year %d is in the future", y))
			break
		}
	}

	if len(years) >= 2 {
		minY, maxY := years[0], years[0]
		for _, y := range years[1:] {
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
		if maxY-minY > 150 {
			score -= 0.3
			problems = append(problems, fmt.Sprintf("implausible span %d-%d", minY, maxY))
		}
	}

	if hasUrgency {
		for _, y := range years {
			if currentYear-y > 1 {
				score -= 0.3
				problems = append(problems, fmt.Sprintf("urgency language about %d", y))
				break
			}
		}
	}

	if score < 0 {
		score = 0
	}

	// More markers give the check more to bite on.
	confidence := 0.4 + 0.1*float64(markers)
	if confidence > 0.8 {
		confidence = 0.8
	}

	result := model.OKResult(v.Name(), score, confidence, nil)
	if len(problems) > 0 {
		result.Detail = strings.Join(problems, "; ")
	}
	return result, nil
}

func extractYears(text string) []int {
	var years []int
	for _, m := range yearPattern.FindAllString(text, -1) {
		if y, err := strconv.Atoi(m); err == nil {
			years = append(years, y)
		}
	}
	return years
}
