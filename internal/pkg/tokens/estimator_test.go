package tokens

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 0},
		{"abc", 0},
		{"abcd", 1},
		{"abcdefg", 1},
		{"abcdefgh", 2},
		{strings.Repeat("x", 4000), 1000},
	}

	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestEstimateTokensCountsBytes(t *testing.T) {
	// Multibyte runes count by encoded length, not rune count.
	if got := EstimateTokens("日本語A"); got != (9+1)/4 {
		t.Errorf("EstimateTokens on multibyte input = %d, want %d", got, (9+1)/4)
	}
}

func TestEstimateTokensNeverNegative(t *testing.T) {
	inputs := []string{"", " ", "\n", strings.Repeat("長", 100)}
	for _, in := range inputs {
		if got := EstimateTokens(in); got < 0 {
			t.Errorf("EstimateTokens(%q) = %d, want non-negative", in, got)
		}
	}
}
