// Package scoring ranks setups and builds their target ladders.
//
// Score is a heuristic ranking function: it adds fixed points for each
// confluence and bias flag. It makes no claim of predictive validity.
package scoring

import (
	"ICTWatch/internal/domain/models"
	"ICTWatch/internal/services/bias"
)

// Weights are the points awarded (or, for Earnings, deducted) per flag.
type Weights struct {
	BOS       float64 `yaml:"bos" default:"20"`
	FVG       float64 `yaml:"fvg" default:"20"`
	OB        float64 `yaml:"ob" default:"20"`
	Liquidity float64 `yaml:"liquidity" default:"10"`
	DDOI      float64 `yaml:"ddoi" default:"10"`
	Opex      float64 `yaml:"opex" default:"5"`
	Earnings  float64 `yaml:"earnings" default:"20"`
	Spread    float64 `yaml:"spread" default:"5"`
}

// DefaultWeights mirrors the yaml defaults for callers that skip config.
func DefaultWeights() Weights {
	return Weights{BOS: 20, FVG: 20, OB: 20, Liquidity: 10, DDOI: 10, Opex: 5, Earnings: 20, Spread: 5}
}

// Confluence flags which detectors produced output for the symbol.
type Confluence struct {
	BOS       bool
	FVG       bool
	OB        bool
	Liquidity bool
}

// Score returns the additive score clamped to [0, 100]. atrLike is accepted
// for parity with the analyzer inputs and does not move the score.
func Score(c Confluence, b models.BiasSnapshot, atrLike float64, spreadOK bool, w Weights) float64 {
	s := 0.0
	if c.BOS {
		s += w.BOS
	}
	if c.FVG {
		s += w.FVG
	}
	if c.OB {
		s += w.OB
	}
	if c.Liquidity {
		s += w.Liquidity
	}
	switch b.DDOI {
	case bias.DDOIPositive:
		s += w.DDOI
	case bias.DDOINegative:
		s -= w.DDOI
	}
	if b.OpexWeek {
		s += w.Opex
	}
	if b.EarningsSoon {
		s -= w.Earnings
	}
	if spreadOK {
		s += w.Spread
	}
	return clamp(s, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
