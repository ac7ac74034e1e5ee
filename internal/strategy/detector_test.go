package strategy

import (
	"testing"

	"github.com/quantex-labs/crossbot/internal/domain"
)

func TestDetectCross(t *testing.T) {
	tests := []struct {
		name               string
		prevFast, prevSlow float64
		fast, slow         float64
		want               domain.Cross
	}{
		{"golden cross", 1, 2, 3, 2, domain.CrossGolden},
		{"death cross", 3, 2, 1, 2, domain.CrossDeath},
		{"fast stays above", 3, 2, 4, 3, domain.CrossNone},
		{"fast stays below", 1, 2, 2, 3, domain.CrossNone},
		{"previous tie, fast ends above", 2, 2, 3, 2, domain.CrossNone},
		{"previous tie, fast ends below", 2, 2, 1, 2, domain.CrossNone},
		{"current tie from below", 1, 2, 2, 2, domain.CrossNone},
		{"current tie from above", 3, 2, 2, 2, domain.CrossNone},
		{"both ties", 2, 2, 2, 2, domain.CrossNone},
		{"touch and retreat", 1, 2, 1.5, 2, domain.CrossNone},
		{"negative values golden", -3, -2, -1, -2, domain.CrossGolden},
		{"negative values death", -1, -2, -3, -2, domain.CrossDeath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectCross(tt.prevFast, tt.prevSlow, tt.fast, tt.slow)
			if got != tt.want {
				t.Errorf("DetectCross(%v, %v, %v, %v) = %v, want %v",
					tt.prevFast, tt.prevSlow, tt.fast, tt.slow, got, tt.want)
			}
		})
	}
}

// The classification must be exhaustive: golden and death are mutually
// exclusive and everything else maps to none.
func TestDetectCrossExclusive(t *testing.T) {
	values := []float64{-1, 0, 1}
	for _, pf := range values {
		for _, ps := range values {
			for _, f := range values {
				for _, s := range values {
					got := DetectCross(pf, ps, f, s)
					golden := pf < ps && f > s
					death := pf > ps && f < s
					switch {
					case golden && got != domain.CrossGolden:
						t.Errorf("(%v,%v,%v,%v): want golden, got %v", pf, ps, f, s, got)
					case death && got != domain.CrossDeath:
						t.Errorf("(%v,%v,%v,%v): want death, got %v", pf, ps, f, s, got)
					case !golden && !death && got != domain.CrossNone:
						t.Errorf("(%v,%v,%v,%v): want none, got %v", pf, ps, f, s, got)
					}
				}
			}
		}
	}
}
