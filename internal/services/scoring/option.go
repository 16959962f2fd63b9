package scoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"ICTWatch/internal/domain/models"
)

// OptionParams filter and rank chain contracts for an alert.
type OptionParams struct {
	DTEMin      int     `yaml:"dte_min" default:"7" validate:"gte=0"`
	DTEMax      int     `yaml:"dte_max" default:"14" validate:"gtefield=DTEMin"`
	DeltaTarget float64 `yaml:"delta_target" default:"0.35"`
	DeltaBand   float64 `yaml:"delta_band" default:"0.10"`
	FallbackMin float64 `yaml:"delta_fallback_min" default:"0.20"`
	FallbackMax float64 `yaml:"delta_fallback_max" default:"0.50"`
	OIMin       float64 `yaml:"oi_min" default:"1000"`
	SpreadMax   float64 `yaml:"spread_max" default:"0.10"`
}

// DefaultOptionParams mirrors the yaml defaults.
func DefaultOptionParams() OptionParams {
	return OptionParams{
		DTEMin: 7, DTEMax: 14,
		DeltaTarget: 0.35, DeltaBand: 0.10,
		FallbackMin: 0.20, FallbackMax: 0.50,
		OIMin: 1000, SpreadMax: 0.10,
	}
}

type optionCandidate struct {
	c      models.OptionContract
	mid    float64
	spread float64
	dte    int
	delta  float64
	roi    float64
}

// DaysToExpiry counts whole days from now's UTC date to an ISO expiry date.
func DaysToExpiry(expiry string, now time.Time) (int, bool) {
	exp, err := time.Parse("2006-01-02", strings.TrimSpace(expiry))
	if err != nil {
		return 0, false
	}
	u := now.UTC()
	today := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(today).Hours() / 24), true
}

// ROIPct estimates the option return for a move of move dollars in the
// underlying: 100*|delta|*move/premium, one decimal. A missing delta
// counts as 0.35 and a missing premium as 1.
func ROIPct(delta, premium, move float64) float64 {
	if delta == 0 {
		delta = 0.35
	}
	if premium == 0 {
		premium = 1
	}
	return RoundTo(100*math.Abs(delta)*move/math.Max(premium, 0.01), 1)
}

// PickOption keeps calls for long and puts for short inside the DTE window
// with a usable quote, enough OI and a tight spread. Candidates come from the
// delta band, else the fallback band, else everything kept; the highest
// estimated ROI for a move of move dollars wins, then delta distance,
// spread and DTE. Nil when nothing qualifies.
func PickOption(chain []models.OptionContract, side models.Side, move float64, now time.Time, p OptionParams) *models.OptionPick {
	wantCall := side == models.Long
	var kept []optionCandidate
	for _, c := range chain {
		if (wantCall && !c.IsCall()) || (!wantCall && !c.IsPut()) {
			continue
		}
		dte, ok := DaysToExpiry(c.Expiration, now)
		if !ok || dte < p.DTEMin || dte > p.DTEMax {
			continue
		}
		mid, ok := c.Mid()
		if !ok {
			continue
		}
		spread := (c.Ask - c.Bid) / mid
		if c.OpenInterest < p.OIMin || spread > p.SpreadMax {
			continue
		}
		premium := RoundCents(mid)
		kept = append(kept, optionCandidate{
			c: c, mid: mid, spread: RoundTo(spread, 3), dte: dte,
			delta: math.Abs(c.Delta),
			roi:   ROIPct(RoundTo(math.Abs(c.Delta), 2), premium, move),
		})
	}
	if len(kept) == 0 {
		return nil
	}

	inBand := func(lo, hi float64) []optionCandidate {
		var out []optionCandidate
		for _, k := range kept {
			if k.c.Delta != 0 && k.delta >= lo && k.delta <= hi {
				out = append(out, k)
			}
		}
		return out
	}
	cand := inBand(p.DeltaTarget-p.DeltaBand, p.DeltaTarget+p.DeltaBand)
	if len(cand) == 0 {
		cand = inBand(p.FallbackMin, p.FallbackMax)
	}
	if len(cand) == 0 {
		cand = kept
	}

	sort.SliceStable(cand, func(i, j int) bool {
		a, b := cand[i], cand[j]
		if a.roi != b.roi {
			return a.roi > b.roi
		}
		da, db := math.Abs(a.delta-p.DeltaTarget), math.Abs(b.delta-p.DeltaTarget)
		if da != db {
			return da < db
		}
		if a.spread != b.spread {
			return a.spread < b.spread
		}
		return a.dte < b.dte
	})

	z := cand[0]
	return &models.OptionPick{
		Type:    strings.ToUpper(z.c.Type),
		Delta:   RoundTo(z.delta, 2),
		Expiry:  z.c.Expiration,
		Strike:  z.c.Strike,
		Premium: RoundCents(z.mid),
		DTE:     z.dte,
		Spread:  z.spread,
		OI:      int(z.c.OpenInterest),
		ROIPct:  z.roi,
	}
}
