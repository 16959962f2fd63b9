package features

import (
	"math"

	"github.com/markcheno/go-talib"

	"ICTWatch/internal/domain/models"
)

// EWMA returns the exponentially weighted moving average of values with
// alpha = 2/(span+1), seeded with the first value. Output has len(values).
func EWMA(values []float64, span int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RangeEWMA is the ATR-like volatility proxy: EWMA(high-low) per bar.
func RangeEWMA(bars []models.Bar, span int) []float64 {
	ranges := make([]float64, len(bars))
	for i, b := range bars {
		ranges[i] = b.High - b.Low
	}
	return EWMA(ranges, span)
}

// MeanRange is the simple average high-low range over the last n bars.
func MeanRange(bars []models.Bar, n int) float64 {
	if len(bars) == 0 || n <= 0 {
		return 0
	}
	if n > len(bars) {
		n = len(bars)
	}
	sum := 0.0
	for _, b := range bars[len(bars)-n:] {
		sum += b.High - b.Low
	}
	return sum / float64(n)
}

// ProjectionPct fits a least-squares line over the last days+20 closes and
// extrapolates it days bars forward. It returns proj/last - 1, or false when
// there are fewer than max(20, days+5) closes.
func ProjectionPct(closes []float64, days int) (float64, bool) {
	if days < 0 {
		days = 0
	}
	need := days + 5
	if need < 20 {
		need = 20
	}
	if len(closes) < need {
		return 0, false
	}
	window := days + 20
	if window > len(closes) {
		window = len(closes)
	}
	ys := closes[len(closes)-window:]
	last := ys[len(ys)-1]
	if last <= 0 {
		return 0, false
	}

	// LinearReg is the fitted value at the newest point; the slope is per bar.
	fitted := talib.LinearReg(ys, window)
	slope := talib.LinearRegSlope(ys, window)
	proj := fitted[len(fitted)-1] + slope[len(slope)-1]*float64(days)
	return proj/last - 1, true
}

// ImpliedMove converts annualized implied vols into an expected fractional
// move over days calendar days using their mean. Non-positive vols are ignored.
func ImpliedMove(ivs []float64, days int) (float64, bool) {
	sum, n := 0.0, 0
	for _, iv := range ivs {
		if iv > 0 && !math.IsNaN(iv) {
			sum += iv
			n++
		}
	}
	if n == 0 || days <= 0 {
		return 0, false
	}
	return sum / float64(n) * math.Sqrt(float64(days)/365.0), true
}
