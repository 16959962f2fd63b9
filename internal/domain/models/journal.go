package models

import (
	"strconv"
	"time"
)

// JournalTimeLayout is the timestamp format written to the journal (PT wall clock).
const JournalTimeLayout = "2006-01-02 15:04:05 PT"

// JournalFields is the fixed journal schema, in column order.
var JournalFields = []string{
	"timestamp_pt", "kind", "symbol", "direction", "entry", "stop", "t1", "t2", "t3", "t4", "score", "proj_move_pct",
	"option_type", "option_delta", "option_expiry", "option_strike", "option_premium", "option_roi_pct", "option_dte", "option_spread",
	"ddoi", "opex_week", "earnings_soon", "earnings_date", "earnings_days_to", "er_dir", "er_conf", "gex_peak_strike", "gex_peak_side", "gex_total",
}

// JournalRow is one flattened journal record keyed by JournalFields.
type JournalRow map[string]string

// Record returns the row values in schema order; unknown keys are dropped.
func (r JournalRow) Record() []string {
	out := make([]string, len(JournalFields))
	for i, f := range JournalFields {
		out[i] = r[f]
	}
	return out
}

// JournalRowFromRecord maps a CSV record onto the schema using its header.
func JournalRowFromRecord(header, rec []string) JournalRow {
	row := make(JournalRow, len(JournalFields))
	for i, h := range header {
		if i < len(rec) {
			row[h] = rec[i]
		}
	}
	return row
}

// BuildJournalRow flattens a setup into a journal row stamped at now (converted to loc).
func BuildJournalRow(kind string, s *Setup, now time.Time, loc *time.Location) JournalRow {
	if loc != nil {
		now = now.In(loc)
	}
	row := JournalRow{
		"timestamp_pt":  now.Format(JournalTimeLayout),
		"kind":          kind,
		"symbol":        s.Symbol,
		"direction":     string(s.Direction),
		"entry":         ff(s.Entry),
		"stop":          ff(s.Stop),
		"t1":            ff(s.Targets[0]),
		"t2":            ff(s.Targets[1]),
		"t3":            ff(s.Targets[2]),
		"t4":            ff(s.Targets[3]),
		"score":         ff(s.Score),
		"proj_move_pct": ff(s.ProjMovePct),
		"ddoi":          s.Bias.DDOI,
		"opex_week":     strconv.FormatBool(s.Bias.OpexWeek),
		"earnings_soon": strconv.FormatBool(s.Bias.EarningsSoon),
		"earnings_date": s.Bias.EarningsDate,
		"er_dir":        s.Bias.ERDir,
	}
	if s.Bias.EarningsDaysTo != nil {
		row["earnings_days_to"] = strconv.Itoa(*s.Bias.EarningsDaysTo)
	}
	if s.Bias.ERDir != "" {
		row["er_conf"] = ff(s.Bias.ERConf)
	}
	if g := s.Bias.GEX; g != nil {
		row["gex_total"] = ff(g.Total)
		row["gex_peak_side"] = g.PeakSide
		if g.PeakSide != "" {
			row["gex_peak_strike"] = ff(g.PeakStrike)
		}
	}
	if o := s.Option; o != nil {
		row["option_type"] = o.Type
		row["option_delta"] = ff(o.Delta)
		row["option_expiry"] = o.Expiry
		row["option_strike"] = ff(o.Strike)
		row["option_premium"] = ff(o.Premium)
		row["option_roi_pct"] = ff(o.ROIPct)
		row["option_dte"] = strconv.Itoa(o.DTE)
		row["option_spread"] = ff(o.Spread)
	}
	return row
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
