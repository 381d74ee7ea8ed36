package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold case-folds s for locale-independent, case-insensitive comparison.
// A Caser holds state, so each call gets its own.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether substr occurs in s ignoring case.
// An empty substr matches everything.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(Fold(s), Fold(substr))
}

// HasPrefixFold reports whether s starts with prefix ignoring case.
func HasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(Fold(s), Fold(prefix))
}
