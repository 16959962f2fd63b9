package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var ErrZeroRisk = errors.New("trade: entry equals stop")

// Trade is one backtest input row.
type Trade struct {
	Time      time.Time  `json:"ts"`
	Symbol    string     `json:"symbol"`
	Direction string     `json:"direction"`
	Entry     float64    `json:"entry"`
	Stop      float64    `json:"stop"`
	Targets   [4]float64 `json:"targets"`
	Kind      string     `json:"kind"`
}

// NewTrade builds a trade and rejects non-positive risk.
func NewTrade(ts time.Time, symbol, direction string, entry, stop float64, targets [4]float64, kind string) (Trade, error) {
	if !(math.Abs(entry-stop) > 0) {
		return Trade{}, fmt.Errorf("%w: %s entry=%v stop=%v", ErrZeroRisk, symbol, entry, stop)
	}
	if kind == "" {
		kind = "entry"
	}
	return Trade{
		Time:      ts,
		Symbol:    strings.ToUpper(symbol),
		Direction: direction,
		Entry:     entry,
		Stop:      stop,
		Targets:   targets,
		Kind:      kind,
	}, nil
}

func (t Trade) Risk() float64 { return math.Abs(t.Entry - t.Stop) }

// IsLong accepts the direction spellings used across journal revisions.
func (t Trade) IsLong() bool {
	switch strings.ToLower(strings.TrimSpace(t.Direction)) {
	case "long", "bull", "bullish", "buy":
		return true
	}
	return false
}

// BacktestResult is the simulated outcome of one trade.
type BacktestResult struct {
	RealizedR float64   `json:"realized_R"`
	HitSeq    []string  `json:"hit_seq"`
	StopHit   bool      `json:"stop_hit"`
	LastTime  time.Time `json:"last_ts"`
	// Closed is the fraction of the position exited at targets or the stop.
	Closed float64 `json:"closed"`
}

// TradeOutcome pairs a trade with its result, or the error that prevented one.
type TradeOutcome struct {
	Trade  Trade
	Result BacktestResult
	Err    error
}
