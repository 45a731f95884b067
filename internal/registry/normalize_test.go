package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"max", "mustermann"}, Tokens("Max Mustermann"))
	assert.Equal(t, []string{"el", "masri", "karim"}, Tokens("El-Masri, Karim"))
	assert.Equal(t, []string{"el", "masri"}, Tokens("AL MASRI"))
	assert.Equal(t, []string{"el", "masri"}, Tokens("EI Masri")) // OCR confusion
	assert.Empty(t, Tokens("  123 ,,, "))
}

func TestNormalizeCollapsesNoise(t *testing.T) {
	assert.Equal(t, "max mustermann", Normalize("  Max\tMUSTERMANN "))
	assert.Equal(t, "el masri karim", Normalize("Al-Masri,Karim"))
}

func TestKeyIsOrderInvariant(t *testing.T) {
	a := Key(Tokens("Ahmed Osama"))
	b := Key(Tokens("Osama Ahmed"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Key(Tokens("Osama Said")))
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in          string
		first, last string
	}{
		{"Max Mustermann", "Max", "Mustermann"},
		{"Petra Anna Schulz", "Petra", "Anna Schulz"},
		{"El Masri Karim", "Karim", "El Masri"},
		{"Ul Haq Zia", "Zia", "Ul Haq"},
		{"Mustermann", "Mustermann", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := SplitName(tc.in)
		assert.Equal(t, tc.first, first, "SplitName(%q) first", tc.in)
		assert.Equal(t, tc.last, last, "SplitName(%q) last", tc.in)
	}
}
