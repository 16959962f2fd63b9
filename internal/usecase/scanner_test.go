package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/internal/domain/models"
	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/metrics"
)

type scriptedAnalyzer struct {
	results  map[string]Result
	inflight atomic.Int32
	peak     atomic.Int32
}

func (a *scriptedAnalyzer) Analyze(_ context.Context, symbol string) Result {
	n := a.inflight.Add(1)
	defer a.inflight.Add(-1)
	for {
		p := a.peak.Load()
		if n <= p || a.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	r := a.results[symbol]
	r.Symbol = symbol
	return r
}

func setupWithScore(sym string, score float64) *models.Setup {
	return &models.Setup{Symbol: sym, Direction: models.Long, Entry: 10, Stop: 9, Targets: [4]float64{11, 12, 13, 14}, Score: score}
}

func TestScannerRanksAndDropsFailures(t *testing.T) {
	a := &scriptedAnalyzer{results: map[string]Result{
		"AAA": {Setup: setupWithScore("AAA", 70)},
		"BBB": {Setup: setupWithScore("BBB", 90)},
		"CCC": {Reject: ErrNoBias},
		"DDD": {Err: errors.New("upstream 500")},
		"EEE": {Setup: setupWithScore("EEE", 70)},
	}}
	universe := func() []string { return []string{"AAA", "BBB", "CCC", "DDD", "EEE"} }
	s := NewScanner(a, universe, 2, time.Second, metrics.Nop{}, logger.Nop())

	got := s.Scan(context.Background())
	require.Len(t, got, 3)
	assert.Equal(t, "BBB", got[0].Symbol)
	assert.Equal(t, "AAA", got[1].Symbol, "ties keep universe order")
	assert.Equal(t, "EEE", got[2].Symbol)
	assert.LessOrEqual(t, a.peak.Load(), int32(2))
}

func TestScannerCancelledContext(t *testing.T) {
	a := &scriptedAnalyzer{results: map[string]Result{"AAA": {Setup: setupWithScore("AAA", 80)}}}
	s := NewScanner(a, nil, 1, 0, metrics.Nop{}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, s.ScanSymbols(ctx, []string{"AAA"}))
}

func TestUniverseSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "universe.txt")
	require.NoError(t, os.WriteFile(file, []byte("# megacaps\naapl\n\nMSFT\nAAPL\nnvda\n"), 0o644))

	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, UniverseSource{File: file, Log: logger.Nop()}.Load())
	assert.Equal(t, []string{"AAPL", "MSFT"}, UniverseSource{File: file, Max: 2, Log: logger.Nop()}.Load())

	missing := UniverseSource{File: filepath.Join(dir, "nope.txt"), Symbols: []string{"spy", "SPY", "qqq"}, Log: logger.Nop()}
	assert.Equal(t, []string{"SPY", "QQQ"}, missing.Load())

	assert.Equal(t, []string{"IWM"}, UniverseSource{Fallback: []string{"iwm"}, Log: logger.Nop()}.Load())
}

func TestSectorArrow(t *testing.T) {
	assert.Equal(t, "·", SectorArrow(nil))
	assert.Equal(t, "·", SectorArrow([]float64{100}))
	assert.Equal(t, "↑", SectorArrow([]float64{100, 100.5}))
	assert.Equal(t, "↓", SectorArrow([]float64{100, 99.5}))
	assert.Equal(t, "–", SectorArrow([]float64{100, 100.2}))
}

func TestSectorBoardLine(t *testing.T) {
	daily := func(a, b float64) []models.Bar {
		return []models.Bar{{Close: a}, {Close: b}}
	}
	md := &fakeMarket{
		daily: map[string][]models.Bar{
			"XLK": daily(100, 102),
			"XLE": daily(100, 98),
		},
		barsErr: map[string]error{"XLU": errors.New("no data")},
	}
	line := NewSectorBoard(md, logger.Nop()).Line(context.Background())
	assert.Contains(t, line, "Sectors: CommSvcs·")
	assert.Contains(t, line, "Tech↑")
	assert.Contains(t, line, "Energy↓")
	assert.Contains(t, line, "Utils·")
}
