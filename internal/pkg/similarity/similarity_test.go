package similarity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDice(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "blue backpack", "blue backpack", 1},
		{"both empty", "", "", 1},
		{"whitespace ignored", "blue backpack", "bluebackpack", 1},
		{"single char", "a", "ab", 0},
		{"one empty", "", "abc", 0},
		{"disjoint", "abc", "xyz", 0},
		{"boundary", "abcdef", "abcdxy", 0.6},
		{"above boundary", "abcdef", "abcdex", 0.8},
		{"repeated bigrams", "aaaa", "aa", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, Dice(tt.a, tt.b), 1e-9)
		})
	}
}

func TestDice_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"red umbrella", "umbrella"},
		{"night", "nacht"},
		{"black wallet", "brown wallet"},
	}
	for _, p := range pairs {
		require.InDelta(t, Dice(p[0], p[1]), Dice(p[1], p[0]), 1e-9)
	}
}

func TestDice_CaseSensitive(t *testing.T) {
	require.Less(t, Dice("ABC", "abc"), 1.0)
}
