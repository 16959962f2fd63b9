package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/internal/domain/models"
)

func TestScore(t *testing.T) {
	w := DefaultWeights()
	cases := []struct {
		name string
		c    Confluence
		b    models.BiasSnapshot
		ok   bool
		want float64
	}{
		{"everything clamps to 100", Confluence{true, true, true, true}, models.BiasSnapshot{DDOI: "pos", OpexWeek: true}, true, 100},
		{"penalties clamp to 0", Confluence{}, models.BiasSnapshot{DDOI: "neg", EarningsSoon: true}, false, 0},
		{"mixed", Confluence{BOS: true, FVG: true}, models.BiasSnapshot{DDOI: "neg", EarningsSoon: true}, true, 15},
		{"structure only", Confluence{true, true, true, false}, models.BiasSnapshot{DDOI: "flat"}, false, 60},
		{"typical accept", Confluence{true, true, true, true}, models.BiasSnapshot{DDOI: "flat"}, true, 75},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.c, tc.b, 1.5, tc.ok, w)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, Score(tc.c, tc.b, 1.5, tc.ok, w))
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestScoreCustomWeights(t *testing.T) {
	w := DefaultWeights()
	w.Opex = 30
	got := Score(Confluence{BOS: true}, models.BiasSnapshot{OpexWeek: true}, 0, false, w)
	assert.Equal(t, 50.0, got)
}

func TestTargetLadderPureR(t *testing.T) {
	got, err := TargetLadder(100, 98, nil)
	require.NoError(t, err)
	assert.Equal(t, [4]float64{102, 104, 106, 108}, got)
}

func TestTargetLadderPrefersLiquidity(t *testing.T) {
	got, err := TargetLadder(100, 98, []float64{103, 97, 101.5, 100})
	require.NoError(t, err)
	assert.Equal(t, [4]float64{101.5, 103, 106, 108}, got)

	short, err := TargetLadder(50, 51, []float64{52, 49.5})
	require.NoError(t, err)
	assert.Equal(t, [4]float64{49.5, 48, 47, 46}, short)
}

func TestTargetLadderStaysMonotonic(t *testing.T) {
	tests := []struct {
		name   string
		entry  float64
		stop   float64
		levels []float64
		want   [4]float64
	}{
		{"levels past 3R ignored", 100, 98, []float64{110, 112}, [4]float64{102, 104, 106, 108}},
		{"one level past 2R fills T2", 100, 98, []float64{105, 112}, [4]float64{102, 105, 106, 108}},
		{"level at 3R ignored", 100, 98, []float64{106}, [4]float64{102, 104, 106, 108}},
		{"short beyond 3R ignored", 50, 51, []float64{40, 46.5}, [4]float64{49, 48, 47, 46}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TargetLadder(tt.entry, tt.stop, tt.levels)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			sign := 1.0
			if tt.entry < tt.stop {
				sign = -1
			}
			prev := tt.entry
			for i, v := range got {
				assert.Greater(t, sign*(v-prev), 0.0, "T%d must be beyond the previous target", i+1)
				prev = v
			}
		})
	}
}

func TestTargetLadderRoundsAndRejectsZeroRisk(t *testing.T) {
	got, err := TargetLadder(10.334, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, [4]float64{10.67, 11, 11.34, 11.67}, got)

	_, err = TargetLadder(5, 5, nil)
	assert.ErrorIs(t, err, models.ErrZeroRisk)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 100.01, RoundCents(100.005))
	assert.Equal(t, 1.23, RoundCents(1.2349))
	assert.Equal(t, 12.3, RoundTo(12.345, 1))
}

var pickNow = time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)

func pickChain() []models.OptionContract {
	return []models.OptionContract{
		{Type: "call", Strike: 105, Expiration: "2025-03-13", Delta: 0.35, OpenInterest: 2000, Bid: 1.00, Ask: 1.05},
		{Type: "call", Strike: 110, Expiration: "2025-03-13", Delta: 0.30, OpenInterest: 2000, Bid: 0.50, Ask: 0.52},
		{Type: "call", Strike: 95, Expiration: "2025-03-13", Delta: 0.60, OpenInterest: 2000, Bid: 0.20, Ask: 0.21},
		{Type: "put", Strike: 95, Expiration: "2025-03-13", Delta: -0.45, OpenInterest: 1500, Bid: 2.00, Ask: 2.10},
		{Type: "call", Strike: 104, Expiration: "2025-03-13", Delta: 0.35, OpenInterest: 100, Bid: 1.00, Ask: 1.02},
		{Type: "call", Strike: 104, Expiration: "2025-04-30", Delta: 0.35, OpenInterest: 5000, Bid: 1.00, Ask: 1.02},
		{Type: "call", Strike: 106, Expiration: "2025-03-13", Delta: 0.35, OpenInterest: 5000, Bid: 1.00, Ask: 1.50},
	}
}

func TestPickOptionLong(t *testing.T) {
	got := PickOption(pickChain(), models.Long, 5, pickNow, DefaultOptionParams())
	require.NotNil(t, got)
	assert.Equal(t, "CALL", got.Type)
	assert.Equal(t, 110.0, got.Strike)
	assert.Equal(t, 0.3, got.Delta)
	assert.Equal(t, 0.51, got.Premium)
	assert.Equal(t, 10, got.DTE)
	assert.Equal(t, 0.039, got.Spread)
	assert.Equal(t, 2000, got.OI)
	assert.Equal(t, 294.1, got.ROIPct)
}

func TestPickOptionShortUsesFallbackBand(t *testing.T) {
	got := PickOption(pickChain(), models.Short, 5, pickNow, DefaultOptionParams())
	require.NotNil(t, got)
	assert.Equal(t, "PUT", got.Type)
	assert.Equal(t, 0.45, got.Delta)
	assert.Equal(t, 2.05, got.Premium)
}

func TestPickOptionFallsBackToAnyKept(t *testing.T) {
	chain := []models.OptionContract{
		{Type: "call", Strike: 100, Expiration: "2025-03-10", OpenInterest: 2000, Bid: 1, Ask: 1.02},
	}
	got := PickOption(chain, models.Long, 2, pickNow, DefaultOptionParams())
	require.NotNil(t, got)
	assert.Equal(t, 7, got.DTE)
	assert.Equal(t, 0.0, got.Delta)
	assert.Equal(t, 69.3, got.ROIPct)

	assert.Nil(t, PickOption(nil, models.Long, 2, pickNow, DefaultOptionParams()))
}

func TestDaysToExpiry(t *testing.T) {
	d, ok := DaysToExpiry("2025-03-03", pickNow)
	require.True(t, ok)
	assert.Equal(t, 0, d)

	_, ok = DaysToExpiry("03/13/2025", pickNow)
	assert.False(t, ok)
}
