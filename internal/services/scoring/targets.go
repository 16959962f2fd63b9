package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"ICTWatch/internal/domain/models"
)

// RoundCents rounds half away from zero to two decimals on the decimal
// representation, so 100.005 becomes 100.01.
func RoundCents(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds v to places decimals.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// TargetLadder derives T1..T4 at 1R..4R away from entry. Liquidity levels
// strictly between entry and 3R replace T1 and T2, nearest first; a single
// level at or past 2R replaces T2 only, so the ladder stays monotonic away
// from entry. Direction is long when entry is above stop.
func TargetLadder(entry, stop float64, levels []float64) ([4]float64, error) {
	var out [4]float64
	r := math.Abs(entry - stop)
	if !(r > 0) {
		return out, fmt.Errorf("%w: entry=%v stop=%v", models.ErrZeroRisk, entry, stop)
	}
	up := entry > stop
	sign := 1.0
	if !up {
		sign = -1.0
	}
	for i := range out {
		out[i] = entry + sign*float64(i+1)*r
	}

	var inside []float64
	for _, l := range levels {
		d := sign * (l - entry)
		if d > 0 && d < 3*r {
			inside = append(inside, l)
		}
	}
	sort.SliceStable(inside, func(i, j int) bool {
		return math.Abs(inside[i]-entry) < math.Abs(inside[j]-entry)
	})
	switch {
	case len(inside) >= 2:
		out[0], out[1] = inside[0], inside[1]
	case len(inside) == 1 && math.Abs(inside[0]-entry) < 2*r:
		out[0] = inside[0]
	case len(inside) == 1:
		out[1] = inside[0]
	}

	for i := range out {
		out[i] = RoundCents(out[i])
	}
	return out, nil
}
