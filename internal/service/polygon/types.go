package polygon

import (
	"time"

	"ICTWatch/internal/domain/models"
)

type aggsResponse struct {
	Status  string   `json:"status"`
	Results []aggBar `json:"results"`
}

type aggBar struct {
	T int64   `json:"t"` // unix ms
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type chainResponse struct {
	Results []snapshot `json:"results"`
	NextURL string     `json:"next_url"`
}

type snapshot struct {
	Details struct {
		Ticker         string  `json:"ticker"`
		ContractType   string  `json:"contract_type"`
		StrikePrice    float64 `json:"strike_price"`
		ExpirationDate string  `json:"expiration_date"`
	} `json:"details"`
	Greeks struct {
		Delta float64 `json:"delta"`
		Gamma float64 `json:"gamma"`
	} `json:"greeks"`
	ImpliedVolatility float64 `json:"implied_volatility"`
	OpenInterest      float64 `json:"open_interest"`
	LastQuote         struct {
		Bid float64 `json:"bid"`
		Ask float64 `json:"ask"`
	} `json:"last_quote"`
}

type earningsResponse struct {
	Results []struct {
		ReportDate string `json:"report_date"`
	} `json:"results"`
}

// toBars converts aggregates to bars, dropping any that do not advance in time.
func toBars(in []aggBar) []models.Bar {
	out := make([]models.Bar, 0, len(in))
	for _, a := range in {
		t := time.UnixMilli(a.T).UTC()
		if n := len(out); n > 0 && !t.After(out[n-1].Time) {
			continue
		}
		out = append(out, models.Bar{Time: t, Open: a.O, High: a.H, Low: a.L, Close: a.C, Volume: a.V})
	}
	return out
}

func (s snapshot) contract() models.OptionContract {
	return models.OptionContract{
		Ticker:       s.Details.Ticker,
		Type:         s.Details.ContractType,
		Strike:       s.Details.StrikePrice,
		Expiration:   s.Details.ExpirationDate,
		OpenInterest: s.OpenInterest,
		Bid:          s.LastQuote.Bid,
		Ask:          s.LastQuote.Ask,
		Delta:        s.Greeks.Delta,
		Gamma:        s.Greeks.Gamma,
		ImpliedVol:   s.ImpliedVolatility,
	}
}
