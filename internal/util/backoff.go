package util

import (
	"math/rand/v2"
	"time"
)

// Backoff returns exponential backoff for the given attempt with up to
// +/-25% jitter. Attempt 0 means no wait.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	if half := int64(d) / 2; half > 0 {
		d += time.Duration(rand.Int64N(half)) - d/4
	}
	return d
}

// GrowingInterval doubles base per completed check, capped at max. Used by
// the unsolved-query monitor to space out re-checks.
func GrowingInterval(base, max time.Duration, checkCount int) time.Duration {
	if base <= 0 {
		return 0
	}
	if checkCount < 0 {
		checkCount = 0
	}
	if checkCount > 30 {
		checkCount = 30
	}
	d := base * time.Duration(1<<uint(checkCount))
	if max > 0 && d > max {
		return max
	}
	return d
}
