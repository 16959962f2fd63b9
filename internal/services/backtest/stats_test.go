package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, -1, 0, 2, -0.5, -1})
	assert.Equal(t, 6, s.Trades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 3, s.Losses)
	assert.Equal(t, 1, s.Flats)
	assert.Equal(t, 33.3, s.WinRatePct)
	assert.Equal(t, 0.083, s.AvgR)
	assert.Equal(t, s.AvgR, s.ExpectancyR)
	assert.Equal(t, -1.5, s.MaxDrawdownR)
}

func TestSummarizeRoundsBeforeClassifying(t *testing.T) {
	s := Summarize([]float64{1e-12, -0.0004, 0.25})
	assert.Equal(t, 2, s.Flats)
	assert.Equal(t, 1, s.Wins)
	assert.Zero(t, s.Losses)
	assert.Zero(t, s.MaxDrawdownR)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Trades)
	assert.Equal(t, []string{"No trades found in journal.", "Not financial advice"}, s.Lines())
}

func TestSummaryLines(t *testing.T) {
	s := Summarize([]float64{1, -1, 0, 2, -0.5, -1})
	assert.Equal(t, []string{
		"Win rate: 33.3%",
		"Avg R / trade: 0.083",
		"Expectancy (R): 0.083",
		"Max drawdown (R): -1.5",
		"W/L/F: 2/3/1",
		"Not financial advice",
	}, s.Lines())
	assert.Equal(t, "Backtest – 6 trades (tf 5m, 5d window, cap 50)", Header(6, 5, 5, 50))
}
