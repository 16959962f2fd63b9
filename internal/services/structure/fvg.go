package structure

import (
	"ICTWatch/internal/domain/models"
	"ICTWatch/internal/services/features"
)

// FairValueGaps finds 3-bar gaps between bar i-2 and bar i whose size is at
// least atrMult times the range EWMA at i.
func FairValueGaps(bars []models.Bar, atrMult float64) []models.Zone {
	if len(bars) < 3 {
		return nil
	}
	atr := features.RangeEWMA(bars, ATRSpan)
	var out []models.Zone
	for i := 2; i < len(bars); i++ {
		cur, prev2 := bars[i], bars[i-2]
		minGap := atr[i] * atrMult
		if cur.Low > prev2.High && cur.Low-prev2.High >= minGap {
			out = append(out, models.Zone{
				Kind: models.ZoneFVG, Direction: models.Bull, Index: i, Time: cur.Time,
				Low: prev2.High, High: cur.Low,
			})
		}
		if cur.High < prev2.Low && prev2.Low-cur.High >= minGap {
			out = append(out, models.Zone{
				Kind: models.ZoneFVG, Direction: models.Bear, Index: i, Time: cur.Time,
				Low: cur.High, High: prev2.Low,
			})
		}
	}
	return out
}
