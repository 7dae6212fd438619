package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffZeroAttempt(t *testing.T) {
	assert.Equal(t, time.Duration(0), Backoff(time.Second, 0))
	assert.Equal(t, time.Duration(0), Backoff(time.Second, -1))
}

func TestBackoffGrowsAndStaysBounded(t *testing.T) {
	base := 100 * time.Millisecond
	for attempt := 1; attempt <= 10; attempt++ {
		d := Backoff(base, attempt)
		assert.Greater(t, d, time.Duration(0), "attempt %d", attempt)
		// 30s cap plus 25% jitter headroom
		assert.LessOrEqual(t, d, 38*time.Second, "attempt %d", attempt)
	}
}

func TestBackoffTinyBaseDoesNotPanic(t *testing.T) {
	// Bases below 2ns leave no room to draw jitter from.
	for _, base := range []time.Duration{1, 2, 3} {
		for attempt := 1; attempt <= 3; attempt++ {
			d := Backoff(base, attempt)
			assert.GreaterOrEqual(t, d, time.Duration(0), "base %d attempt %d", base, attempt)
		}
	}
}

func TestGrowingIntervalDoublesAndCaps(t *testing.T) {
	base := 10 * time.Minute
	max := time.Hour

	assert.Equal(t, 10*time.Minute, GrowingInterval(base, max, 0))
	assert.Equal(t, 20*time.Minute, GrowingInterval(base, max, 1))
	assert.Equal(t, 40*time.Minute, GrowingInterval(base, max, 2))
	assert.Equal(t, time.Hour, GrowingInterval(base, max, 3))
	assert.Equal(t, time.Hour, GrowingInterval(base, max, 20))
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Earth is FLAT!", "the earth is flat"},
		{"  the   earth\tis flat.  ", "the earth is flat"},
		{"The earth... is, flat", "the earth is flat"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeText(tt.in))
	}
}

func TestFingerprintStableAcrossFormatting(t *testing.T) {
	a := Fingerprint("The Earth is FLAT!")
	b := Fingerprint("the earth is flat")
	c := Fingerprint("the moon is flat")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
