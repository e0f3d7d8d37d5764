package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the case-folded form of s.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// HasPrefixFold reports whether s begins with prefix under case folding.
func HasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(Fold(s), Fold(prefix))
}

// ContainsFold reports whether substr is within s under case folding.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// ContainsAnyFold reports whether s contains any of the candidates.
func ContainsAnyFold(s string, candidates []string) bool {
	folded := Fold(s)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if strings.Contains(folded, Fold(c)) {
			return true
		}
	}
	return false
}

// NormalizeCaption returns caption text in NFC with surrounding whitespace trimmed.
func NormalizeCaption(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
