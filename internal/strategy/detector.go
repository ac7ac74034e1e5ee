// Package strategy implements the EMA crossover evaluation loop and the
// lifecycle of the single open position per instrument.
package strategy

import "github.com/quantex-labs/crossbot/internal/domain"

// DetectCross classifies the crossover between two consecutive samples of a
// fast/slow moving-average pair. Ties on either sample are not a cross.
func DetectCross(prevFast, prevSlow, fast, slow float64) domain.Cross {
	switch {
	case prevFast < prevSlow && fast > slow:
		return domain.CrossGolden
	case prevFast > prevSlow && fast < slow:
		return domain.CrossDeath
	default:
		return domain.CrossNone
	}
}
