package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/internal/domain/models"
	"ICTWatch/internal/services/bias"
	"ICTWatch/internal/services/scoring"
	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/metrics"
)

var analyzeNow = time.Date(2025, 3, 3, 18, 0, 0, 0, time.UTC)

// bullSeries is a flat base followed by a swing high, a breakout above it
// and a bullish gap.
func bullSeries() []models.Bar {
	var ohlc [][4]float64
	for i := 0; i < 20; i++ {
		ohlc = append(ohlc, [4]float64{100, 101, 99, 100})
	}
	ohlc = append(ohlc,
		[4]float64{100, 102, 99.5, 101.5},
		[4]float64{101.5, 103, 100.5, 100.8},
		[4]float64{100.8, 101.5, 100, 101},
		[4]float64{102, 106, 101.8, 105.5},
		[4]float64{105.5, 107, 104, 106.5},
	)
	t0 := analyzeNow.Add(-3 * time.Hour)
	bars := make([]models.Bar, len(ohlc))
	for i, v := range ohlc {
		bars[i] = models.Bar{Time: t0.Add(time.Duration(i) * 5 * time.Minute), Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: 1000}
	}
	return bars
}

func testAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		LookbackDays: 10, TimeframeMin: 5, MinBars: 20, ATRWindow: 14, EarningsDays: 7,
		SwingN: 1, BOSATRMult: 0, FVGATRMult: 0, OBLookback: 10, LiquidityTol: 0.001,
		MinScore:       60,
		ProjectionMode: ProjectionTrend, ProjectionDays: 0, ProjectionMin: -0.10, ProjectionMax: 0.10,
		Weights: scoring.DefaultWeights(),
		Options: scoring.DefaultOptionParams(),
		GEX:     bias.GEXParams{WindowPct: 0.15, OIMin: 500, SpreadMax: 0.2},
	}
}

func newTestAnalyzer(md *fakeMarket, cfg AnalyzerConfig) *SetupAnalyzer {
	a := NewSetupAnalyzer(md, cfg, metrics.Nop{}, logger.Nop())
	a.now = func() time.Time { return analyzeNow }
	return a
}

func TestAnalyzeAccepts(t *testing.T) {
	md := &fakeMarket{bars: map[string][]models.Bar{"SPY": bullSeries()}}
	res := newTestAnalyzer(md, testAnalyzerConfig()).Analyze(context.Background(), "SPY")

	require.NoError(t, res.Err)
	require.NoError(t, res.Reject)
	require.True(t, res.Accepted())
	s := res.Setup
	assert.Equal(t, "SPY", res.Symbol)
	assert.Equal(t, models.Long, s.Direction)
	assert.Equal(t, 101.15, s.Entry)
	assert.Equal(t, 100.8, s.Stop)
	assert.Equal(t, 101.5, s.Targets[0])
	assert.Equal(t, 75.0, s.Score)
	assert.Equal(t, "flat", s.Bias.DDOI)
	assert.False(t, s.Bias.OpexWeek)
	assert.Nil(t, s.Option)
	assert.Equal(t, "2-2 Continuation Up", s.Strat)
	assert.InDelta(t, -3.7, s.ProjMovePct, 0.2)
	require.Len(t, s.Zones, 1)
	assert.Equal(t, models.ZoneOB, s.Zones[0].Kind)
	assert.Equal(t, analyzeNow, s.CreatedAt)
}

func TestAnalyzeRejects(t *testing.T) {
	flat := make([]models.Bar, 30)
	for i := range flat {
		flat[i] = models.Bar{Time: analyzeNow.Add(time.Duration(i-30) * 5 * time.Minute), Open: 50, High: 51, Low: 49, Close: 50}
	}

	cases := []struct {
		name string
		bars []models.Bar
		tune func(*AnalyzerConfig)
		want error
	}{
		{"too few bars", bullSeries()[:10], nil, ErrInsufficientBars},
		{"no break of structure", flat, nil, ErrNoBias},
		{"score below minimum", bullSeries(), func(c *AnalyzerConfig) { c.MinScore = 90 }, ErrBelowMinScore},
		{"projection outside band", bullSeries(), func(c *AnalyzerConfig) { c.ProjectionMin, c.ProjectionMax = 0.05, 0.10 }, ErrProjectionBand},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testAnalyzerConfig()
			if tc.tune != nil {
				tc.tune(&cfg)
			}
			md := &fakeMarket{bars: map[string][]models.Bar{"QQQ": tc.bars}}
			res := newTestAnalyzer(md, cfg).Analyze(context.Background(), "QQQ")
			assert.NoError(t, res.Err)
			assert.Nil(t, res.Setup)
			assert.ErrorIs(t, res.Reject, tc.want)
		})
	}
}

func TestAnalyzeFetchFailureIsAnError(t *testing.T) {
	md := &fakeMarket{barsErr: map[string]error{"TSLA": errors.New("timeout")}}
	res := newTestAnalyzer(md, testAnalyzerConfig()).Analyze(context.Background(), "TSLA")
	assert.Error(t, res.Err)
	assert.Nil(t, res.Reject)
	assert.False(t, res.Accepted())
}

func TestAnalyzeFlagsEarnings(t *testing.T) {
	md := &fakeMarket{
		bars:     map[string][]models.Bar{"NVDA": bullSeries()},
		earnings: time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC),
	}
	cfg := testAnalyzerConfig()
	cfg.MinScore = 0
	res := newTestAnalyzer(md, cfg).Analyze(context.Background(), "NVDA")
	require.True(t, res.Accepted())
	b := res.Setup.Bias
	assert.True(t, b.EarningsSoon)
	assert.Equal(t, "2025-03-06", b.EarningsDate)
	require.NotNil(t, b.EarningsDaysTo)
	assert.Equal(t, 3, *b.EarningsDaysTo)
	require.NotNil(t, b.GEX)
	assert.NotEmpty(t, b.ERDir)
	assert.Equal(t, 55.0, res.Setup.Score)
}

func TestMajorityDirection(t *testing.T) {
	ev := func(ds ...models.Direction) []models.StructureEvent {
		out := make([]models.StructureEvent, len(ds))
		for i, d := range ds {
			out[i] = models.StructureEvent{Index: i, Direction: d}
		}
		return out
	}
	cases := []struct {
		name   string
		events []models.StructureEvent
		want   models.Direction
		ok     bool
	}{
		{"none", nil, "", false},
		{"single bull", ev(models.Bull), models.Bull, true},
		{"split pair", ev(models.Bull, models.Bear), "", false},
		{"two of three bear", ev(models.Bull, models.Bear, models.Bear), models.Bear, true},
		{"only last three count", ev(models.Bear, models.Bear, models.Bear, models.Bull, models.Bull, models.Bear), models.Bull, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := MajorityDirection(tc.events, 3)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLatestZone(t *testing.T) {
	fvgs := []models.Zone{
		{Kind: models.ZoneFVG, Direction: models.Bull, Index: 5},
		{Kind: models.ZoneFVG, Direction: models.Bear, Index: 9},
	}
	obs := []models.Zone{{Kind: models.ZoneOB, Direction: models.Bull, Index: 4}}

	z, ok := LatestZone(models.Bull, fvgs, obs)
	require.True(t, ok)
	assert.Equal(t, 5, z.Index)

	z, ok = LatestZone(models.Bear, fvgs, obs)
	require.True(t, ok)
	assert.Equal(t, models.ZoneFVG, z.Kind)

	_, ok = LatestZone(models.Bear, nil, obs)
	assert.False(t, ok)
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2025, 3, 3, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(from, time.Date(2025, 3, 3, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, 7, DaysBetween(from, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, DaysBetween(from, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)))
}
