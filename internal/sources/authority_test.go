package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierTiers(t *testing.T) {
	c := NewClassifier(
		[]string{"who.int", "reuters.com"},
		[]string{"snopes.com", "politifact.com"},
	)

	tests := []struct {
		url  string
		want Tier
	}{
		{"https://www.who.int/news/item/123", TierPrimary},
		{"https://reuters.com/fact-check/abc", TierPrimary},
		{"https://www.snopes.com/fact-check/xyz", TierSecondary},
		{"https://someblog.example.com/post", TierTertiary},
		{"https://who.int:443/path", TierPrimary},
		{"not a url at all ://", TierUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.url), tt.url)
	}
}

func TestTierWeightsOrdered(t *testing.T) {
	assert.Greater(t, TierPrimary.Weight(), TierSecondary.Weight())
	assert.Greater(t, TierSecondary.Weight(), TierTertiary.Weight())
	assert.Greater(t, TierTertiary.Weight(), TierUnknown.Weight())
}
