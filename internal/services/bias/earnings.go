package bias

import (
	"math"

	"ICTWatch/internal/domain/models"
)

const (
	ERPin        = "Pin"
	ERUp         = "Up"
	ERDown       = "Down"
	ERTwoSided   = "Two-sided"
	tiltDeadband = 0.2
)

// EarningsMove is a heuristic post-earnings direction with a confidence in [0.5, 0.95].
type EarningsMove struct {
	Direction  string  `json:"er_dir"`
	Confidence float64 `json:"er_conf"`
}

// PredictEarningsMove reads positive net gamma as a pin. Otherwise the tilt
// picks a side outside a ±0.2 dead zone. daysTo may be nil when unknown.
func PredictEarningsMove(g models.GEX, daysTo *int) EarningsMove {
	var dir string
	switch {
	case g.Total > 0:
		dir = ERPin
	case g.Tilt >= tiltDeadband:
		dir = ERUp
	case g.Tilt <= -tiltDeadband:
		dir = ERDown
	default:
		dir = ERTwoSided
	}

	conf := 0.55 + 0.4*math.Min(1, math.Abs(g.Tilt))
	if daysTo != nil && *daysTo >= 0 && *daysTo <= 3 {
		conf += 0.05
	}
	conf = math.Max(0.5, math.Min(0.95, conf))
	return EarningsMove{Direction: dir, Confidence: conf}
}
