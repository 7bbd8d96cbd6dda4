// Package textutils holds the text normalization used for every keyword
// comparison: rule matching, renames, settlement patterns and transfers.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize uppercases text, strips diacritics and collapses whitespace,
// so that "Pão  de Açúcar" and "PAO DE ACUCAR" compare equal.
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	return CollapseSpaces(strings.ToUpper(stripped))
}

// CollapseSpaces trims text and reduces every whitespace run to one space.
func CollapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ContainsAny reports whether the normalized text contains any of the
// patterns after normalizing them. Empty patterns never match.
func ContainsAny(text string, patterns []string) bool {
	_, ok := FirstMatch(text, patterns)
	return ok
}

// FirstMatch returns the first pattern, in list order, contained in text.
func FirstMatch(text string, patterns []string) (string, bool) {
	normalized := Normalize(text)
	for _, p := range patterns {
		np := Normalize(p)
		if np != "" && strings.Contains(normalized, np) {
			return p, true
		}
	}
	return "", false
}
