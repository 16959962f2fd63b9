package models

import (
	"math"
	"time"
)

type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// BiasSnapshot is computed per symbol per scan.
type BiasSnapshot struct {
	DDOI           string  `json:"ddoi"`
	OpexWeek       bool    `json:"opex_week"`
	EarningsSoon   bool    `json:"earnings_soon"`
	EarningsDate   string  `json:"earnings_date,omitempty"`
	EarningsDaysTo *int    `json:"earnings_days_to,omitempty"`
	ERDir          string  `json:"er_dir,omitempty"`
	ERConf         float64 `json:"er_conf,omitempty"`
	GEX            *GEX    `json:"gex,omitempty"`
}

// GEX summarizes dealer gamma exposure around spot.
type GEX struct {
	Total      float64 `json:"gex_total"`
	Calls      float64 `json:"gex_calls"`
	Puts       float64 `json:"gex_puts"`
	Tilt       float64 `json:"gex_tilt"`
	PeakStrike float64 `json:"gex_peak_strike"`
	PeakSide   string  `json:"gex_peak_side"`
	PeakValue  float64 `json:"gex_peak_value"`
	Used       int     `json:"contracts_used"`
}

// Setup is a scored candidate trade produced by the analyzer.
type Setup struct {
	Symbol      string       `json:"symbol"`
	Direction   Side         `json:"direction"`
	Entry       float64      `json:"entry"`
	Stop        float64      `json:"stop"`
	Targets     [4]float64   `json:"targets"`
	Score       float64      `json:"score"`
	Zones       []Zone       `json:"zones"`
	Bias        BiasSnapshot `json:"bias"`
	ProjMovePct float64      `json:"proj_move_pct"`
	Option      *OptionPick  `json:"option,omitempty"`
	Strat       string       `json:"strat,omitempty"`
	HTFBias     string       `json:"htf_bias,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Risk is |entry-stop|.
func (s *Setup) Risk() float64 { return math.Abs(s.Entry - s.Stop) }

// SetupEvent is the streamed form of an accepted setup.
type SetupEvent struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Setup       Setup     `json:"setup"`
	PublishedAt time.Time `json:"published_at"`
}
