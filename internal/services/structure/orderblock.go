package structure

import (
	"math"

	"ICTWatch/internal/domain/models"
)

// DefaultOBLookback is how many bars before a BOS are searched for the block.
const DefaultOBLookback = 10

// OrderBlocks takes, for each BOS, the last candle in the lookback window
// whose body opposes the break (down candle for bull, up candle for bear).
// The zone spans that candle's body and is stamped with the BOS bar.
func OrderBlocks(bars []models.Bar, events []models.StructureEvent, lookback int) []models.Zone {
	if lookback <= 0 {
		lookback = DefaultOBLookback
	}
	var out []models.Zone
	for _, ev := range events {
		if ev.Index <= 0 || ev.Index >= len(bars) {
			continue
		}
		start := ev.Index - lookback
		if start < 0 {
			start = 0
		}
		for j := ev.Index - 1; j >= start; j-- {
			c := bars[j]
			opposes := (ev.Direction == models.Bull && c.Close < c.Open) ||
				(ev.Direction == models.Bear && c.Close > c.Open)
			if !opposes {
				continue
			}
			out = append(out, models.Zone{
				Kind: models.ZoneOB, Direction: ev.Direction, Index: ev.Index, Time: ev.Time,
				Low: math.Min(c.Open, c.Close), High: math.Max(c.Open, c.Close),
			})
			break
		}
	}
	return out
}
