package models

import "strings"

// OptionContract is one row of an options-chain snapshot. Absent fields are zero.
type OptionContract struct {
	Ticker       string  `json:"ticker,omitempty"`
	Type         string  `json:"contract_type"`
	Strike       float64 `json:"strike"`
	Expiration   string  `json:"expiration_date"`
	OpenInterest float64 `json:"open_interest"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Delta        float64 `json:"delta"`
	Gamma        float64 `json:"gamma"`
	ImpliedVol   float64 `json:"implied_volatility"`
}

// IsCall reports whether the contract type starts with "c".
func (c OptionContract) IsCall() bool {
	return strings.HasPrefix(strings.ToLower(c.Type), "c")
}

// IsPut reports whether the contract type starts with "p".
func (c OptionContract) IsPut() bool {
	return strings.HasPrefix(strings.ToLower(c.Type), "p")
}

// Mid returns the quote midpoint, or false if the quote is unusable.
func (c OptionContract) Mid() (float64, bool) {
	if c.Bid <= 0 || c.Ask <= 0 || c.Ask < c.Bid {
		return 0, false
	}
	return 0.5 * (c.Bid + c.Ask), true
}

// OptionPick is the contract attached to an accepted setup.
type OptionPick struct {
	Type    string  `json:"type"`
	Delta   float64 `json:"delta"`
	Expiry  string  `json:"expiry"`
	Strike  float64 `json:"strike"`
	Premium float64 `json:"premium"`
	DTE     int     `json:"dte"`
	Spread  float64 `json:"spread"`
	OI      int     `json:"oi"`
	ROIPct  float64 `json:"roi_pct"`
}
