package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name  string
		num   string
		scale string
		want  int64
		ok    bool
	}{
		{"million word", "10", "million", 10_000_000, true},
		{"short billion", "1.5", "b", 1_500_000_000, true},
		{"bn suffix", "1.2", "bn", 1_200_000_000, true},
		{"mm suffix", "25", "mm", 25_000_000, true},
		{"thousand k", "500", "k", 500_000, true},
		{"no scale", "75000", "", 75_000, true},
		{"comma separators", "1,250,000", "", 1_250_000, true},
		{"space separators", "1 250 000", "", 1_250_000, true},
		{"decimal with scale", "2.75", "million", 2_750_000, true},
		{"uppercase scale", "3", "BN", 3_000_000_000, true},
		{"garbage numeral", "abc", "", 0, false},
		{"empty numeral", "", "million", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeAmount(tt.num, tt.scale)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
