package discord

import (
	"fmt"
	"strconv"
	"strings"

	"ICTWatch/internal/domain/models"
)

const (
	footerNFA       = "Not financial advice"
	maxDescription  = 4096
	colorLong       = 0x2ecc71
	colorShort      = 0xe74c3c
	usernameWatch   = "ICT Watchlists"
	usernameEntries = "ICT Entries"
	usernameMacro   = "Macro Bot"
)

// WatchlistPayload renders a summary post: one line per row in the description.
func WatchlistPayload(title string, lines []string) Payload {
	return Payload{
		Username: usernameWatch,
		Embeds: []Embed{{
			Title:       title,
			Description: truncate(strings.Join(lines, "\n"), maxDescription),
			Footer:      &Footer{Text: footerNFA},
		}},
	}
}

// MacroPayload renders the standalone macro and sectors update.
func MacroPayload(title, macroLine, sectorsLine string) Payload {
	return Payload{
		Username: usernameMacro,
		Embeds: []Embed{{
			Title: title,
			Fields: []Field{
				{Name: "Macro", Value: macroLine},
				{Name: "Sectors", Value: sectorsLine},
			},
			Footer: &Footer{Text: footerNFA},
		}},
	}
}

// EntryPayload renders a single setup alert.
func EntryPayload(s *models.Setup) Payload {
	color := colorLong
	if s.Direction == models.Short {
		color = colorShort
	}
	fields := []Field{
		{Name: "Entry / Stop", Value: fmt.Sprintf("%s / %s (1R=%s)", px(s.Entry), px(s.Stop), px(s.Risk()))},
		{Name: "Targets", Value: fmt.Sprintf("T1 %s | T2 %s | T3 %s | T4 %s",
			px(s.Targets[0]), px(s.Targets[1]), px(s.Targets[2]), px(s.Targets[3]))},
		{Name: "Score", Value: strconv.FormatFloat(s.Score, 'f', -1, 64), Inline: true},
	}
	if s.ProjMovePct != 0 {
		fields = append(fields, Field{Name: "Proj", Value: fmt.Sprintf("%.1f%%", s.ProjMovePct), Inline: true})
	}
	fields = append(fields, Field{Name: "Bias", Value: BiasLine(s.Bias)})
	if o := s.Option; o != nil {
		fields = append(fields, Field{Name: "Option", Value: OptionLine(o)})
	}
	if s.Strat != "" || s.HTFBias != "" {
		fields = append(fields, Field{Name: "Strat", Value: strings.TrimSpace(s.Strat + " (HTF " + orDash(s.HTFBias) + ")")})
	}
	return Payload{
		Username: usernameEntries,
		Embeds: []Embed{{
			Title:  fmt.Sprintf("ENTRY – %s %s", s.Symbol, strings.ToUpper(string(s.Direction))),
			Color:  color,
			Fields: fields,
			Footer: &Footer{Text: "Scale: 50/25/25 at T1/T2/runner • " + footerNFA},
		}},
	}
}

// BiasLine summarizes the bias snapshot on one line.
func BiasLine(b models.BiasSnapshot) string {
	parts := []string{"DDOI " + orDash(b.DDOI)}
	if b.OpexWeek {
		parts = append(parts, "OPEX wk")
	}
	if b.EarningsDate != "" {
		e := "E:" + b.EarningsDate
		if b.EarningsDaysTo != nil {
			e += fmt.Sprintf(" (%dd)", *b.EarningsDaysTo)
		}
		parts = append(parts, e)
	}
	if b.ERDir != "" {
		parts = append(parts, fmt.Sprintf("ER:%s %.0f%%", b.ERDir, b.ERConf*100))
	}
	if g := b.GEX; g != nil && g.PeakSide != "" {
		parts = append(parts, fmt.Sprintf("GEX peak %s %s", g.PeakSide, px(g.PeakStrike)))
	}
	return strings.Join(parts, " • ")
}

// OptionLine describes the picked contract.
func OptionLine(o *models.OptionPick) string {
	return fmt.Sprintf("%s %s %s Δ%.2f @%s (DTE %d, spr %.1f%%, OI %d, ROI %.1f%%)",
		o.Type, px(o.Strike), o.Expiry, o.Delta, px(o.Premium), o.DTE, o.Spread*100, o.OI, o.ROIPct)
}

func px(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func orDash(s string) string {
	if s == "" {
		return "–"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
