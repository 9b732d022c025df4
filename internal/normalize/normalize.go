// Package normalize provides text normalization for matching user input against stored values.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded form of s.
// A Caser is stateful, so one is created per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether substr occurs in s ignoring case. An empty substr always matches.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(Fold(s), Fold(substr))
}

// Query cleans free-text user input: control characters are dropped and
// runs of whitespace collapse to a single space.
func Query(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, raw)
	return strings.Join(strings.Fields(cleaned), " ")
}

// Email lowercases and trims an email address for index keys.
func Email(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
