package fields

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a locale-formatted amount string. All but the last
// punctuation separator are treated as thousands separators; a decimal comma
// becomes a decimal point: "1.234,56" -> 1234.56, "1234,56" -> 1234.56.
// Anything unparseable resolves to decimal.Zero, never an error: a garbled
// OCR amount must not abort the record.
func ParseAmount(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			// thousands are sometimes space-separated on invoices
		case r == '€' || r == '$':
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+':
			b.WriteRune(r)
		default:
			// unparseable fragment: zero sentinel
			return decimal.Zero
		}
	}
	s := b.String()
	if s == "" {
		return decimal.Zero
	}

	lastSep := strings.LastIndexAny(s, ".,")
	if lastSep >= 0 {
		var cleaned strings.Builder
		for i, r := range s {
			if r == '.' || r == ',' {
				if i == lastSep {
					cleaned.WriteRune('.')
				}
				continue
			}
			cleaned.WriteRune(r)
		}
		s = cleaned.String()
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
