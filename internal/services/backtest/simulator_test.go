package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/internal/domain/models"
)

var start = time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)

func longTrade(t *testing.T) models.Trade {
	tr, err := models.NewTrade(start, "spy", "long", 100, 98, [4]float64{102, 104, 106, 108}, "")
	require.NoError(t, err)
	return tr
}

// candles builds bars from (high, low, close) rows.
func candles(rows ...[3]float64) []models.Candle {
	out := make([]models.Candle, len(rows))
	for i, r := range rows {
		out[i] = models.Candle{Time: start.Add(time.Duration(i+1) * 5 * time.Minute), High: r[0], Low: r[1], Close: r[2]}
	}
	return out
}

func TestProfitR(t *testing.T) {
	tr := longTrade(t)
	assert.Equal(t, 0.0, ProfitR(tr, tr.Entry))
	assert.Equal(t, -1.0, ProfitR(tr, tr.Stop))
	assert.Equal(t, 2.0, ProfitR(tr, 104))

	short, err := models.NewTrade(start, "QQQ", "bear", 50, 51, [4]float64{49, 48, 47, 46}, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, ProfitR(short, 50))
	assert.Equal(t, -1.0, ProfitR(short, 51))
	assert.Equal(t, 3.0, ProfitR(short, 47))
}

func TestSimulateT1ThenBreakevenStop(t *testing.T) {
	res := Simulate(longTrade(t), candles(
		[3]float64{103, 99, 102},
		[3]float64{101, 99, 99.5},
	))
	assert.InDelta(t, 0.5, res.RealizedR, 1e-12)
	assert.Equal(t, []string{"T1"}, res.HitSeq)
	assert.True(t, res.StopHit)
	assert.InDelta(t, 1.0, res.Closed, 1e-12)
	assert.Equal(t, start.Add(10*time.Minute), res.LastTime)
}

func TestSimulateStopBeforeTargetsOnSameBar(t *testing.T) {
	res := Simulate(longTrade(t), candles([3]float64{110, 97, 105}))
	assert.Equal(t, -1.0, res.RealizedR)
	assert.Empty(t, res.HitSeq)
	assert.True(t, res.StopHit)
}

func TestSimulateFullLadderT4WinsTie(t *testing.T) {
	res := Simulate(longTrade(t), candles(
		[3]float64{102.5, 99, 102},
		[3]float64{104.5, 101, 104},
		[3]float64{108, 103, 107},
		[3]float64{90, 80, 85},
	))
	assert.InDelta(t, 2.0, res.RealizedR, 1e-12)
	assert.Equal(t, []string{"T1", "T2", "T4"}, res.HitSeq)
	assert.False(t, res.StopHit)
	assert.InDelta(t, 1.0, res.Closed, 1e-12)
	assert.Equal(t, start.Add(15*time.Minute), res.LastTime)
}

func TestSimulateRunnerTakesT3(t *testing.T) {
	res := Simulate(longTrade(t), candles(
		[3]float64{104, 99, 103},
		[3]float64{106.5, 101, 106},
	))
	assert.InDelta(t, 1.75, res.RealizedR, 1e-12)
	assert.Equal(t, []string{"T1", "T2", "T3"}, res.HitSeq)
	assert.False(t, res.StopHit)
}

func TestSimulateMarksRemainderAtLastClose(t *testing.T) {
	res := Simulate(longTrade(t), candles(
		[3]float64{102.5, 99, 102},
		[3]float64{101.5, 100.5, 101},
	))
	assert.InDelta(t, 0.75, res.RealizedR, 1e-12)
	assert.Equal(t, []string{"T1"}, res.HitSeq)
	assert.False(t, res.StopHit)
	assert.InDelta(t, 1.0, res.Closed, 1e-12)
}

func TestSimulateTargetsFireOnce(t *testing.T) {
	res := Simulate(longTrade(t), candles(
		[3]float64{102.5, 100.5, 102},
		[3]float64{102.5, 100.5, 102},
		[3]float64{102.5, 100.5, 102},
	))
	assert.Equal(t, []string{"T1"}, res.HitSeq)
	assert.InDelta(t, 0.5+0.5*1, res.RealizedR, 1e-12)
	assert.LessOrEqual(t, res.Closed, 1.0+1e-12)
}

func TestSimulateShort(t *testing.T) {
	tr, err := models.NewTrade(start, "QQQ", "short", 50, 51, [4]float64{49, 48, 47, 46}, "")
	require.NoError(t, err)
	res := Simulate(tr, candles(
		[3]float64{50.2, 48.9, 49.1},
		[3]float64{50, 49.5, 49.9},
	))
	assert.InDelta(t, 0.5, res.RealizedR, 1e-12)
	assert.Equal(t, []string{"T1"}, res.HitSeq)
	assert.True(t, res.StopHit)
}

func TestSimulateEmptyCandles(t *testing.T) {
	res := Simulate(longTrade(t), nil)
	assert.Zero(t, res.RealizedR)
	assert.Empty(t, res.HitSeq)
	assert.False(t, res.StopHit)
	assert.True(t, res.LastTime.IsZero())
}

func TestSimulateNeverClosesMoreThanPosition(t *testing.T) {
	paths := [][]models.Candle{
		candles([3]float64{104, 99, 103}),
		candles([3]float64{110, 99, 109}),
		candles([3]float64{103, 99, 102}, [3]float64{105, 100.5, 104}, [3]float64{104, 99, 100}),
		candles([3]float64{101, 98.5, 100}),
	}
	for i, path := range paths {
		res := Simulate(longTrade(t), path)
		assert.LessOrEqual(t, res.Closed, 1.0+1e-12, "path %d", i)
		if !res.StopHit {
			assert.InDelta(t, 1.0, res.Closed, 1e-12, "path %d", i)
		}
	}
}

func TestNewTradeRejectsZeroRisk(t *testing.T) {
	_, err := models.NewTrade(start, "SPY", "long", 100, 100, [4]float64{101, 102, 103, 104}, "")
	assert.ErrorIs(t, err, models.ErrZeroRisk)
}
