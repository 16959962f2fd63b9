package backtest

import (
	"fmt"
	"math"

	"ICTWatch/internal/services/scoring"
)

// Summary aggregates realized R across simulated trades.
type Summary struct {
	Trades       int     `json:"trades"`
	WinRatePct   float64 `json:"winrate_pct"`
	AvgR         float64 `json:"avg_R"`
	ExpectancyR  float64 `json:"expectancy_R"`
	MaxDrawdownR float64 `json:"max_drawdown_R"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Flats        int     `json:"flats"`
}

// Summarize expects results in trade order. Each value is first rounded to
// three decimals as it is reported. Drawdown is the deepest fall of the
// cumulative sum below its running peak, which starts at zero.
func Summarize(realized []float64) Summary {
	s := Summary{Trades: len(realized)}
	if len(realized) == 0 {
		return s
	}
	var sum, cum, peak, mdd float64
	for _, v := range realized {
		r := scoring.RoundTo(v, 3)
		switch {
		case math.Abs(r) < 1e-9:
			s.Flats++
		case r > 0:
			s.Wins++
		default:
			s.Losses++
		}
		sum += r
		cum += r
		peak = math.Max(peak, cum)
		mdd = math.Min(mdd, cum-peak)
	}
	n := float64(len(realized))
	s.WinRatePct = scoring.RoundTo(100*float64(s.Wins)/n, 1)
	s.AvgR = scoring.RoundTo(sum/n, 3)
	s.ExpectancyR = s.AvgR
	s.MaxDrawdownR = scoring.RoundTo(mdd, 3)
	return s
}

// Header titles a summary post.
func Header(trades, tfMin, days, limit int) string {
	return fmt.Sprintf("Backtest – %d trades (tf %dm, %dd window, cap %d)", trades, tfMin, days, limit)
}

// Lines renders the summary body for a chat post.
func (s Summary) Lines() []string {
	if s.Trades == 0 {
		return []string{"No trades found in journal.", "Not financial advice"}
	}
	return []string{
		fmt.Sprintf("Win rate: %s%%", num(s.WinRatePct)),
		fmt.Sprintf("Avg R / trade: %s", num(s.AvgR)),
		fmt.Sprintf("Expectancy (R): %s", num(s.ExpectancyR)),
		fmt.Sprintf("Max drawdown (R): %s", num(s.MaxDrawdownR)),
		fmt.Sprintf("W/L/F: %d/%d/%d", s.Wins, s.Losses, s.Flats),
		"Not financial advice",
	}
}

func num(v float64) string {
	if v == 0 {
		return "0"
	}
	return fmt.Sprintf("%g", v)
}
