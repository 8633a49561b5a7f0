package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// normalizeText collapses whitespace runs so that re-exports of the same
// contract with different line wrapping hash identically.
func normalizeText(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// Fingerprint returns the SHA-256 hex digest of the normalized document text.
// Operators use it to spot repeated uploads of one contract in the history.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(normalizeText(text)))
	return hex.EncodeToString(sum[:])
}
