package verifier

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/veristat/veristat/internal/model"
	"github.com/veristat/veristat/internal/sources"
	"github.com/veristat/veristat/internal/util"
)

// Lookup is one external reference endpoint the source verifier consults.
type Lookup struct {
	Name string
	URL  string
}

// DefaultLookups returns the standard fact-check reference endpoints.
func DefaultLookups() []Lookup {
	return []Lookup{
		{Name: "politifact", URL: "https://www.politifact.com/search/"},
		{Name: "snopes", URL: "https://www.snopes.com/search/"},
		{Name: "factcheck", URL: "https://www.factcheck.org/search/"},
	}
}

// SourceCredibility checks how well external reference sources corroborate
// the claim text, weighted by each source's authority tier.
type SourceCredibility struct {
	client  *sources.Client
	lookups []Lookup
}

// NewSourceCredibility builds the source-credibility verifier.
func NewSourceCredibility(client *sources.Client, lookups []Lookup) *SourceCredibility {
	return &SourceCredibility{client: client, lookups: lookups}
}

// Name returns the verifier name.
func (v *SourceCredibility) Name() string { return "source_credibility" }

// Verify queries each reference endpoint with the claim and scores the
// claim by the authority-weighted fraction of corroborating responses.
func (v *SourceCredibility) Verify(ctx context.Context, claim model.Claim) (model.VerifierResult, error) {
	terms := keyTerms(claim.Text, 6)
	if len(terms) == 0 {
		r := model.OKResult(v.Name(), 0.5, 0.1, nil)
		r.Detail = "no searchable terms in claim"
		return r, nil
	}

	var (
		evidence    []model.EvidenceRef
		weightTotal float64
		weightHit   float64
		consulted   int
		lastErr     error
	)

	for _, lookup := range v.lookups {
		body, status, err := v.client.Lookup(ctx, lookup.URL, claim.Text)
		if err != nil {
			lastErr = err
			continue
		}
		if status != 200 {
			continue
		}

		weight := v.client.Authority(lookup.URL).Weight()
		weightTotal += weight
		consulted++

		if corroborates(body, terms) {
			weightHit += weight
			evidence = append(evidence, model.EvidenceRef{SourceRef: lookup.URL, Weight: weight})
		}
	}

	if consulted == 0 {
		if lastErr != nil {
			return model.VerifierResult{}, fmt.Errorf("no reference source reachable: %w", lastErr)
		}
		return model.VerifierResult{}, fmt.Errorf("no reference source responded")
	}

	score := weightHit / weightTotal
	// Confidence scales with how much of the reference set answered.
	confidence := 0.3 + 0.6*float64(consulted)/float64(len(v.lookups))

	return model.OKResult(v.Name(), score, confidence, evidence), nil
}

// keyTerms picks the longest distinct normalized words as search terms.
func keyTerms(text string, max int) []string {
	words := strings.Fields(util.NormalizeText(text))

	seen := make(map[string]bool, len(words))
	var terms []string
	for _, w := range words {
		if len(w) >= 5 && !seen[w] {
			seen[w] = true
			terms = append(terms, w)
		}
	}

	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })
	if len(terms) > max {
		terms = terms[:max]
	}
	return terms
}

// corroborates reports whether a response body mentions enough of the
// claim's key terms to count as coverage of the claim.
func corroborates(body string, terms []string) bool {
	lower := strings.ToLower(body)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	need := 2
	if len(terms) < 2 {
		need = len(terms)
	}
	return hits >= need
}
