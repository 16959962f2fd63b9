// Package structure holds the price-structure detectors. All detectors are
// pure and total: short or empty input yields empty output.
package structure

import "ICTWatch/internal/domain/models"

// Swings marks fractal swing points with a symmetric window of n bars.
// Index i is a swing high when high[i] is the max of [i-n, i+n] and strictly
// above both neighbours; swing lows mirror that with lows.
func Swings(bars []models.Bar, n int) models.SwingPoints {
	var sp models.SwingPoints
	if n < 1 || len(bars) < 2*n+1 {
		return sp
	}
	for i := n; i < len(bars)-n; i++ {
		hi, lo := bars[i].High, bars[i].Low
		maxH, minL := hi, lo
		for j := i - n; j <= i+n; j++ {
			if bars[j].High > maxH {
				maxH = bars[j].High
			}
			if bars[j].Low < minL {
				minL = bars[j].Low
			}
		}
		if hi == maxH && hi > bars[i-1].High && hi > bars[i+1].High {
			sp.Highs = append(sp.Highs, i)
		}
		if lo == minL && lo < bars[i-1].Low && lo < bars[i+1].Low {
			sp.Lows = append(sp.Lows, i)
		}
	}
	return sp
}
