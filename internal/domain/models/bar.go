package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnorderedBars = errors.New("bars: timestamps must be strictly increasing")

// Bar is one OHLCV sample. Series of bars are ascending by Time with no duplicates.
type Bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

// Candle is the unit consumed by the backtest simulator.
type Candle = Bar

// NewBarSeries validates that bars are strictly ascending by time.
func NewBarSeries(bars []Bar) ([]Bar, error) {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("%w: index %d at %s", ErrUnorderedBars, i, bars[i].Time.Format(time.RFC3339))
		}
	}
	return bars, nil
}

// Closes extracts the close column.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Since returns the suffix of bars at or after t.
func Since(bars []Bar, t time.Time) []Bar {
	for i, b := range bars {
		if !b.Time.Before(t) {
			return bars[i:]
		}
	}
	return nil
}
