package structure

import "ICTWatch/internal/domain/models"

// Strat candle classes relative to the previous bar.
const (
	Inside  = "1"
	TwoUp   = "2u"
	TwoDown = "2d"
	Outside = "3"
)

// StratPattern is a recognised 2- or 3-bar combination ending at the last bar.
type StratPattern struct {
	Name      string
	Direction models.Direction
	Types     []string
}

type stratDef struct {
	name string
	dir  models.Direction
}

var pat3 = map[[3]string]stratDef{
	{TwoDown, Inside, TwoUp}:    {"2-1-2 Up", models.Bull},
	{TwoUp, Inside, TwoDown}:    {"2-1-2 Down", models.Bear},
	{Inside, Inside, TwoUp}:     {"1-1-2 Up", models.Bull},
	{Inside, Inside, TwoDown}:   {"1-1-2 Down", models.Bear},
	{Outside, Inside, TwoUp}:    {"3-1-2 Up", models.Bull},
	{Outside, Inside, TwoDown}:  {"3-1-2 Down", models.Bear},
	{Outside, TwoUp, TwoUp}:     {"3-2-2 Up", models.Bull},
	{Outside, TwoDown, TwoDown}: {"3-2-2 Down", models.Bear},
}

var pat2 = map[[2]string]stratDef{
	{TwoDown, TwoUp}:   {"2-2 Reversal Up", models.Bull},
	{TwoUp, TwoDown}:   {"2-2 Reversal Down", models.Bear},
	{TwoUp, TwoUp}:     {"2-2 Continuation Up", models.Bull},
	{TwoDown, TwoDown}: {"2-2 Continuation Down", models.Bear},
	{Inside, TwoUp}:    {"1-2 Upside Break", models.Bull},
	{Inside, TwoDown}:  {"1-2 Downside Break", models.Bear},
	{Outside, TwoUp}:   {"3-2 Upside", models.Bull},
	{Outside, TwoDown}: {"3-2 Downside", models.Bear},
}

// CandleTypes classifies every bar. The first bar has no reference and is "1".
func CandleTypes(bars []models.Bar) []string {
	out := make([]string, len(bars))
	for i := range bars {
		if i == 0 {
			out[i] = Inside
			continue
		}
		hi, lo := bars[i].High, bars[i].Low
		phi, plo := bars[i-1].High, bars[i-1].Low
		switch {
		case hi <= phi && lo >= plo:
			out[i] = Inside
		case hi > phi && lo < plo:
			out[i] = Outside
		case hi > phi:
			out[i] = TwoUp
		case lo < plo:
			out[i] = TwoDown
		default:
			out[i] = Inside
		}
	}
	return out
}

// DetectStrat matches the last three bars, then the last two, against the
// known pattern tables.
func DetectStrat(bars []models.Bar) (StratPattern, bool) {
	if len(bars) < 3 {
		return StratPattern{}, false
	}
	t := CandleTypes(bars)
	n := len(t)
	k3 := [3]string{t[n-3], t[n-2], t[n-1]}
	if d, ok := pat3[k3]; ok {
		return StratPattern{Name: d.name, Direction: d.dir, Types: k3[:]}, true
	}
	k2 := [2]string{t[n-2], t[n-1]}
	if d, ok := pat2[k2]; ok {
		return StratPattern{Name: d.name, Direction: d.dir, Types: k2[:]}, true
	}
	return StratPattern{}, false
}

// HTFBias reads the last higher-timeframe bar: 2u is bull, 2d is bear, an
// outside bar follows its body colour, anything else is flat.
func HTFBias(bars []models.Bar) string {
	if len(bars) < 2 {
		return "flat"
	}
	t := CandleTypes(bars)
	last := bars[len(bars)-1]
	switch t[len(t)-1] {
	case TwoUp:
		return string(models.Bull)
	case TwoDown:
		return string(models.Bear)
	case Outside:
		if last.Close > last.Open {
			return string(models.Bull)
		}
		return string(models.Bear)
	}
	return "flat"
}
