package registry

import (
	"sort"
	"strings"
	"unicode"
)

// prefixFold maps transliteration variants of the patronymic name prefix to
// one canonical spelling so "Al Masri", "El-Masri" and OCR's "EI Masri" all
// normalize identically.
var prefixFold = map[string]string{
	"al": "el",
	"el": "el",
	"ei": "el", // common OCR confusion of El
	"il": "el",
	"ul": "el",
}

// localeMarker is the canonical spelling every prefix variant folds to.
const localeMarker = "el"

// Tokens normalizes a raw name into matching tokens: lowercase, non-letters
// become spaces, whitespace collapses, prefix variants fold.
func Tokens(name string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	raw := strings.Fields(b.String())
	out := raw[:0]
	for _, t := range raw {
		if folded, ok := prefixFold[t]; ok {
			t = folded
		}
		out = append(out, t)
	}
	return out
}

// Normalize returns the normalized form of a name as one string.
func Normalize(name string) string {
	return strings.Join(Tokens(name), " ")
}

// Key returns an order-invariant lookup key for a token list.
func Key(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// SplitName splits a raw display name into given and family parts for entity
// provisioning. When a token carries the patronymic prefix convention the
// final token is the given name and the rest the family name; otherwise the
// first token is the given name.
func SplitName(raw string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(raw))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}

	hasPrefix := false
	for _, p := range parts {
		if _, ok := prefixFold[strings.ToLower(strings.Trim(p, "-"))]; ok {
			hasPrefix = true
			break
		}
	}
	if hasPrefix {
		return parts[len(parts)-1], strings.Join(parts[:len(parts)-1], " ")
	}
	return parts[0], strings.Join(parts[1:], " ")
}
