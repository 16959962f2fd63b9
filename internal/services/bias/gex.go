package bias

import (
	"math"

	"ICTWatch/internal/domain/models"
)

// GEXParams filters the chain before exposure is summed.
type GEXParams struct {
	WindowPct float64 `yaml:"window_pct" default:"0.15"`
	OIMin     float64 `yaml:"oi_min" default:"500"`
	SpreadMax float64 `yaml:"spread_max" default:"0.20"`
}

type strikeSide struct {
	strike float64
	side   string
}

// GammaExposure computes gamma*OI*100*spot^2 per contract within
// ±WindowPct of spot, with calls positive and puts negative in the total.
// The peak is the strike and side with the largest absolute exposure; the
// first one seen wins ties.
func GammaExposure(chain []models.OptionContract, spot float64, p GEXParams) models.GEX {
	var g models.GEX
	perStrike := make(map[strikeSide]float64)
	var order []strikeSide

	lo, hi := spot*(1-p.WindowPct), spot*(1+p.WindowPct)
	for _, c := range chain {
		if c.Gamma == 0 || c.Strike == 0 {
			continue
		}
		if c.Strike < lo || c.Strike > hi {
			continue
		}
		if c.OpenInterest < p.OIMin {
			continue
		}
		mid, ok := c.Mid()
		if !ok || (c.Ask-c.Bid)/mid > p.SpreadMax {
			continue
		}

		exposure := c.Gamma * c.OpenInterest * 100 * spot * spot
		var key strikeSide
		switch {
		case c.IsCall():
			g.Calls += exposure
			key = strikeSide{c.Strike, "call"}
		case c.IsPut():
			g.Puts += exposure
			key = strikeSide{c.Strike, "put"}
		default:
			continue
		}
		if _, seen := perStrike[key]; !seen {
			order = append(order, key)
		}
		perStrike[key] += exposure
		g.Used++
	}

	g.Total = g.Calls - g.Puts
	for _, k := range order {
		if v := perStrike[k]; math.Abs(v) > math.Abs(g.PeakValue) {
			g.PeakStrike, g.PeakSide, g.PeakValue = k.strike, k.side, v
		}
	}
	g.Tilt = (g.Calls - math.Abs(g.Puts)) / (math.Abs(g.Calls) + math.Abs(g.Puts) + 1e-9)
	return g
}
