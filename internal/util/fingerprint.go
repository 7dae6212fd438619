package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// NormalizeText lowercases, strips punctuation, and collapses whitespace so
// trivially different submissions of the same claim hash identically.
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// Fingerprint returns the content hash of the normalized text. This is the
// claim's identity for deduplication and verdict history.
func Fingerprint(text string) string {
	hash := sha256.Sum256([]byte(NormalizeText(text)))
	return hex.EncodeToString(hash[:])
}
