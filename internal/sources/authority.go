package sources

import (
	"net/url"
	"strings"
)

// Tier classifies source authority.
type Tier int

const (
	TierUnknown   Tier = 0
	TierPrimary   Tier = 1 // official agencies, wire services
	TierSecondary Tier = 2 // established fact checkers, major publishers
	TierTertiary  Tier = 3 // everything else
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// Weight maps a tier to the evidence weight it contributes.
func (t Tier) Weight() float64 {
	switch t {
	case TierPrimary:
		return 1.0
	case TierSecondary:
		return 0.7
	case TierTertiary:
		return 0.4
	default:
		return 0.2
	}
}

// Classifier assigns authority tiers to source URLs from configured
// domain lists. Subdomains inherit the tier of their registered domain.
type Classifier struct {
	primary   map[string]bool
	secondary map[string]bool
}

// NewClassifier builds a classifier from domain lists.
func NewClassifier(primaryDomains, secondaryDomains []string) *Classifier {
	c := &Classifier{
		primary:   make(map[string]bool, len(primaryDomains)),
		secondary: make(map[string]bool, len(secondaryDomains)),
	}
	for _, d := range primaryDomains {
		c.primary[strings.ToLower(d)] = true
	}
	for _, d := range secondaryDomains {
		c.secondary[strings.ToLower(d)] = true
	}
	return c
}

// Classify returns the authority tier for a URL.
func (c *Classifier) Classify(rawURL string) Tier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return TierUnknown
	}

	host := strings.ToLower(parsed.Host)
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}

	// Walk suffixes so www.cdc.gov matches cdc.gov.
	for h := host; h != ""; {
		if c.primary[h] {
			return TierPrimary
		}
		if c.secondary[h] {
			return TierSecondary
		}
		idx := strings.Index(h, ".")
		if idx < 0 {
			break
		}
		h = h[idx+1:]
	}

	return TierTertiary
}
