package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/internal/domain/models"
	"ICTWatch/internal/services/macro"
	"ICTWatch/pkg/cache"
	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/metrics"
)

// Monday 07:00 PT, inside a 06:30-13:00 session.
var liveNow = time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)

type liveHarness struct {
	mon   *LiveMonitor
	notif *fakeNotifier
	jour  *memJournal
	pub   *fakePublisher
}

func newLiveHarness(t *testing.T, m MacroSource, dedupe cache.Service) liveHarness {
	t.Helper()
	h := liveHarness{notif: &fakeNotifier{}, jour: &memJournal{}, pub: &fakePublisher{}}
	cfg := LiveConfig{MaxSymbols: 5, Tolerance: 0.1, SessionStart: 390, SessionEnd: 780, DedupeTTL: time.Hour, Loc: pt}
	h.mon = NewLiveMonitor(staticScanner(nil), nil, m, h.notif, h.jour, h.pub, dedupe, cfg, metrics.Nop{}, logger.Nop())
	h.mon.now = func() time.Time { return liveNow }
	return h
}

func shortSetup(sym string, entry float64) *models.Setup {
	return &models.Setup{Symbol: sym, Direction: models.Short, Entry: entry, Stop: entry + 1, Targets: [4]float64{entry - 1, entry - 2, entry - 3, entry - 4}}
}

func TestTriggered(t *testing.T) {
	assert.True(t, Triggered(99.95, 100, models.Long, 0.001))
	assert.False(t, Triggered(99.8, 100, models.Long, 0.001))
	assert.True(t, Triggered(101, 100, models.Long, 0))
	assert.True(t, Triggered(100.05, 100, models.Short, 0.001))
	assert.False(t, Triggered(100.2, 100, models.Short, 0.001))
	assert.False(t, Triggered(0, 100, models.Short, 0.001))
}

func TestLiveMonitorFiresOncePerSymbol(t *testing.T) {
	dedupe := cache.NewMemoryCache()
	defer dedupe.Close()
	h := newLiveHarness(t, fakeMacro{}, dedupe)
	assert.InDelta(t, 0.001, h.mon.cfg.Tolerance, 1e-12, "0.1 is read as percent")

	syms := h.mon.Arm([]*models.Setup{setupWithScore("AAA", 80), shortSetup("BBB", 50)})
	require.Equal(t, []string{"AAA", "BBB"}, syms)
	ctx := context.Background()

	require.NoError(t, h.mon.ProcessTick(ctx, &models.Tick{Symbol: "AAA", Price: 9.5}))
	assert.Empty(t, h.notif.entries, "below tolerance")

	require.NoError(t, h.mon.ProcessTick(ctx, &models.Tick{Symbol: "AAA", Price: 9.995}))
	require.NoError(t, h.mon.ProcessTick(ctx, &models.Tick{Symbol: "AAA", Price: 10.2}))
	require.NoError(t, h.mon.ProcessTick(ctx, &models.Tick{Symbol: "ZZZ", Price: 10}))
	require.Len(t, h.notif.entries, 1)
	assert.Equal(t, []string{KindEntryLive}, h.jour.kinds())
	assert.Equal(t, []string{KindEntryLive}, h.pub.kinds)

	require.NoError(t, h.mon.ProcessTick(ctx, &models.Tick{Symbol: "BBB", Price: 49.99}))
	require.Len(t, h.notif.entries, 2)
	select {
	case <-h.mon.done:
	default:
		t.Fatal("done should close once every symbol fired")
	}
}

func TestLiveMonitorSharedDedupe(t *testing.T) {
	dedupe := cache.NewMemoryCache()
	defer dedupe.Close()
	first := newLiveHarness(t, fakeMacro{}, dedupe)
	second := newLiveHarness(t, fakeMacro{}, dedupe)
	first.mon.Arm([]*models.Setup{setupWithScore("AAA", 80)})
	second.mon.Arm([]*models.Setup{setupWithScore("AAA", 80)})

	ctx := context.Background()
	require.NoError(t, first.mon.ProcessTick(ctx, &models.Tick{Symbol: "AAA", Price: 10}))
	require.NoError(t, second.mon.ProcessTick(ctx, &models.Tick{Symbol: "AAA", Price: 10}))
	assert.Len(t, first.notif.entries, 1)
	assert.Empty(t, second.notif.entries)
}

func TestLiveMonitorRetriesAfterNotifyFailure(t *testing.T) {
	dedupe := cache.NewMemoryCache()
	defer dedupe.Close()
	h := newLiveHarness(t, fakeMacro{}, dedupe)
	h.notif.failEntry = 1
	h.mon.Arm([]*models.Setup{setupWithScore("AAA", 80)})

	ctx := context.Background()
	require.Error(t, h.mon.ProcessTick(ctx, &models.Tick{Symbol: "AAA", Price: 10}))
	require.NoError(t, h.mon.ProcessTick(ctx, &models.Tick{Symbol: "AAA", Price: 10}))
	assert.Len(t, h.notif.entries, 1)
}

func TestLiveMonitorHoldsDuringMacroAndOutsideSession(t *testing.T) {
	cpi := macro.Event{Title: "CPI", Start: liveNow}
	h := newLiveHarness(t, fakeMacro{all: []macro.Event{cpi}, blocking: []macro.Event{cpi}}, nil)
	h.mon.Arm([]*models.Setup{setupWithScore("AAA", 80)})
	ctx := context.Background()

	require.NoError(t, h.mon.ProcessTick(ctx, &models.Tick{Symbol: "AAA", Price: 10}))
	assert.Empty(t, h.notif.entries)

	open := newLiveHarness(t, fakeMacro{}, nil)
	open.mon.Arm([]*models.Setup{setupWithScore("AAA", 80)})
	open.mon.now = func() time.Time { return time.Date(2025, 3, 3, 22, 0, 0, 0, time.UTC) } // 14:00 PT
	require.NoError(t, open.mon.ProcessTick(ctx, &models.Tick{Symbol: "AAA", Price: 10}))
	assert.Empty(t, open.notif.entries)
}
