package structure

import (
	"math"
	"sort"

	"ICTWatch/internal/domain/models"
)

// EqualHighsLows records a level for every adjacent pair whose highs (or lows)
// differ by at most tol relative to the later bar. Highs keep the larger
// price, lows the smaller one.
func EqualHighsLows(bars []models.Bar, tol float64) models.LiquidityLevels {
	var hs, ls []float64
	for i := 1; i < len(bars); i++ {
		cur, prev := bars[i], bars[i-1]
		if cur.High != 0 && math.Abs(cur.High-prev.High)/math.Abs(cur.High) <= tol {
			hs = append(hs, math.Max(cur.High, prev.High))
		}
		if cur.Low != 0 && math.Abs(cur.Low-prev.Low)/math.Abs(cur.Low) <= tol {
			ls = append(ls, math.Min(cur.Low, prev.Low))
		}
	}
	return models.LiquidityLevels{Highs: sortedUnique(hs), Lows: sortedUnique(ls)}
}

func sortedUnique(v []float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	sort.Float64s(v)
	out := v[:1]
	for _, x := range v[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
