package fields

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1234,56", "1234.56"},
		{"2.500,00", "2500"},
		{"1.234.567,89", "1234567.89"},
		{"1 234,56", "1234.56"},
		{"1234.56", "1234.56"},
		{"42", "42"},
		{"€ 980,10", "980.1"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := ParseAmount(tc.in)
			want := decimal.RequireFromString(tc.want)
			assert.True(t, got.Equal(want), "ParseAmount(%q) = %s, want %s", tc.in, got, want)
		})
	}
}

func TestParseAmountUnparseableIsZero(t *testing.T) {
	for _, in := range []string{"", "abc", "12x34", "O,OO", "--"} {
		got := ParseAmount(in)
		assert.True(t, got.IsZero(), "ParseAmount(%q) = %s, want zero sentinel", in, got)
	}
}
