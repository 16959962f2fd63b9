package structure

import (
	"ICTWatch/internal/domain/models"
	"ICTWatch/internal/services/features"
)

// ATRSpan is the EWMA span of the high-low range used as the volatility proxy.
const ATRSpan = 14

// BreakOfStructure walks bars in order and emits an event whenever a close
// clears the last formed swing high (bull) or swing low (bear) by more than
// atrMult times the range EWMA at that bar. A swing becomes the reference
// only once the walk reaches it, after that bar has been checked.
func BreakOfStructure(bars []models.Bar, swings models.SwingPoints, atrMult float64) []models.StructureEvent {
	if len(bars) == 0 {
		return nil
	}
	atr := features.RangeEWMA(bars, ATRSpan)
	isHigh := indexSet(swings.Highs)
	isLow := indexSet(swings.Lows)

	var out []models.StructureEvent
	refHi, refLo := -1, -1
	for i, b := range bars {
		threshold := atr[i] * atrMult
		if refHi >= 0 {
			level := bars[refHi].High
			if b.Close > level && b.Close-level > threshold {
				out = append(out, models.StructureEvent{
					Index: i, Time: b.Time, Direction: models.Bull,
					RefIndex: refHi, RefTime: bars[refHi].Time,
					Displacement: b.Close - level,
				})
			}
		}
		if refLo >= 0 {
			level := bars[refLo].Low
			if b.Close < level && level-b.Close > threshold {
				out = append(out, models.StructureEvent{
					Index: i, Time: b.Time, Direction: models.Bear,
					RefIndex: refLo, RefTime: bars[refLo].Time,
					Displacement: level - b.Close,
				})
			}
		}
		if _, ok := isHigh[i]; ok {
			refHi = i
		}
		if _, ok := isLow[i]; ok {
			refLo = i
		}
	}
	return out
}

func indexSet(idx []int) map[int]struct{} {
	m := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		m[i] = struct{}{}
	}
	return m
}
