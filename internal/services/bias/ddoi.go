// Package bias derives options-market and calendar bias signals.
package bias

import "ICTWatch/internal/domain/models"

const (
	DDOIPositive = "pos"
	DDOINegative = "neg"
	DDOIFlat     = "flat"
)

// Positioning is the open-interest weighted dealer proxy of a chain.
type Positioning struct {
	NetGamma float64 `json:"net_gex"`
	NetDelta float64 `json:"net_delta"`
}

// Label maps the sign of the net delta onto pos/neg/flat.
func (p Positioning) Label() string {
	switch {
	case p.NetDelta > 0:
		return DDOIPositive
	case p.NetDelta < 0:
		return DDOINegative
	}
	return DDOIFlat
}

// DealerPositioning sums gamma*OI and delta*OI with calls positive and
// everything else negative. Missing greeks or OI contribute nothing.
func DealerPositioning(chain []models.OptionContract) Positioning {
	var p Positioning
	for _, c := range chain {
		sign := -1.0
		if c.IsCall() {
			sign = 1.0
		}
		p.NetGamma += c.Gamma * c.OpenInterest * sign
		p.NetDelta += c.Delta * c.OpenInterest * sign
	}
	return p
}
