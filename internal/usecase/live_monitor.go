package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	"ICTWatch/internal/middleware"
	"ICTWatch/pkg/cache"
	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/util"
)

const macroRecheck = time.Minute

type LiveConfig struct {
	MaxSymbols int
	// Tolerance is a fraction; values >= 1 are read as percent.
	Tolerance    float64
	SessionStart int // minutes after midnight
	SessionEnd   int
	DedupeTTL    time.Duration
	MaxRPS       int
	RetryBuffer  int
	Loc          *time.Location
}

// LiveMonitor watches the premarket setups on the realtime stream and posts
// each one once, when price trades within tolerance of its entry.
type LiveMonitor struct {
	scanner   SetupScanner
	stream    domrepo.MarketStream
	macro     MacroSource
	notifier  domrepo.Notifier
	journal   domrepo.Journal
	publisher domrepo.SetupPublisher
	dedupe    cache.Service
	cfg       LiveConfig
	metrics   domrepo.Metrics
	log       *logger.Logger
	now       func() time.Time

	mu         sync.Mutex
	watch      map[string]*models.Setup
	fired      map[string]bool
	done       chan struct{}
	blocked    bool
	macroCheck time.Time
}

func NewLiveMonitor(
	scanner SetupScanner,
	stream domrepo.MarketStream,
	macroSrc MacroSource,
	notifier domrepo.Notifier,
	journal domrepo.Journal,
	publisher domrepo.SetupPublisher,
	dedupe cache.Service,
	cfg LiveConfig,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *LiveMonitor {
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	if cfg.Tolerance >= 1 {
		cfg.Tolerance /= 100
	}
	return &LiveMonitor{
		scanner:   scanner,
		stream:    stream,
		macro:     macroSrc,
		notifier:  notifier,
		journal:   journal,
		publisher: publisher,
		dedupe:    dedupe,
		cfg:       cfg,
		metrics:   metrics,
		log:       log.With("live"),
		now:       time.Now,
	}
}

// Arm replaces the watch set with the first MaxSymbols setups.
func (m *LiveMonitor) Arm(setups []*models.Setup) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watch = make(map[string]*models.Setup)
	m.fired = make(map[string]bool)
	m.done = make(chan struct{})
	var symbols []string
	for _, s := range head(setups, m.cfg.MaxSymbols) {
		if _, dup := m.watch[s.Symbol]; dup {
			continue
		}
		m.watch[s.Symbol] = s
		symbols = append(symbols, s.Symbol)
	}
	return symbols
}

// Run scans, arms the watch set and streams until every symbol has fired,
// the session ends or ctx is cancelled.
func (m *LiveMonitor) Run(ctx context.Context) error {
	symbols := m.Arm(m.scanner.Scan(ctx))
	if len(symbols) == 0 {
		m.log.Info("no setups to monitor")
		return nil
	}

	now := m.now().In(m.cfg.Loc)
	day, _ := util.DayBounds(now)
	if end := day.Add(time.Duration(m.cfg.SessionEnd) * time.Minute); end.After(now) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, end)
		defer cancel()
	}

	if err := m.stream.Connect(ctx); err != nil {
		return fmt.Errorf("live connect: %w", err)
	}
	defer m.stream.Close()
	if err := m.stream.Subscribe(ctx, symbols); err != nil {
		return fmt.Errorf("live subscribe: %w", err)
	}

	pipe := middleware.NewTickPipeline(m, m.metrics, m.log,
		middleware.WithMaxRPS(m.cfg.MaxRPS),
		middleware.WithBufferSize(m.cfg.RetryBuffer),
	)
	pipe.Start(ctx)
	defer pipe.Stop()

	m.log.Info("monitor started",
		logger.Int("symbols", len(symbols)),
		logger.Float64("tolerance", m.cfg.Tolerance),
	)
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	ticks, errs := m.stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			m.log.Info("all symbols triggered")
			return nil
		case t, ok := <-ticks:
			if !ok {
				ticks, errs = m.reconnect(ctx)
				continue
			}
			_ = pipe.Process(ctx, t)
		case err, ok := <-errs:
			if ok && err != nil {
				m.log.Warn("stream error", logger.Error(err))
			}
			ticks, errs = m.reconnect(ctx)
		}
	}
}

func (m *LiveMonitor) reconnect(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	if err := m.stream.Reconnect(ctx); err != nil {
		m.log.Warn("stream reconnect failed", logger.Error(err))
		m.metrics.RecordError("live_reconnect")
	}
	return m.stream.Read(ctx)
}

// ProcessTick implements middleware.TickProcessor.
func (m *LiveMonitor) ProcessTick(ctx context.Context, t *models.Tick) error {
	now := m.now().In(m.cfg.Loc)
	if !util.InSession(now, m.cfg.SessionStart, m.cfg.SessionEnd) {
		return nil
	}

	m.mu.Lock()
	s, ok := m.watch[t.Symbol]
	if !ok || m.fired[t.Symbol] {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if !Triggered(t.Price, s.Entry, s.Direction, m.cfg.Tolerance) {
		return nil
	}
	if m.macroBlocking(ctx, now) {
		return nil
	}

	key := cache.GenerateKeyWithParams("live", "fired", now.Format("2006-01-02"), t.Symbol)
	if m.dedupe != nil {
		first, err := m.dedupe.TryLock(ctx, key, m.cfg.DedupeTTL)
		if err != nil {
			m.log.Warn("dedupe unavailable", logger.Error(err))
		} else if !first {
			m.markFired(t.Symbol)
			return nil
		}
	}

	if err := m.notifier.SendEntry(ctx, s); err != nil {
		if m.dedupe != nil {
			_ = m.dedupe.Unlock(ctx, key)
		}
		return fmt.Errorf("live entry %s: %w", t.Symbol, err)
	}
	if err := m.journal.Append(ctx, models.BuildJournalRow(KindEntryLive, s, now, m.cfg.Loc)); err != nil {
		m.log.Warn("journal live entry failed", logger.String("symbol", t.Symbol), logger.Error(err))
	}
	if err := m.publisher.Publish(ctx, KindEntryLive, s); err != nil {
		m.log.Warn("setup publish failed", logger.String("symbol", t.Symbol), logger.Error(err))
	}
	m.log.Info("live entry posted", logger.String("symbol", t.Symbol), logger.Float64("price", t.Price))
	m.markFired(t.Symbol)
	return nil
}

func (m *LiveMonitor) markFired(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fired[symbol] {
		return
	}
	m.fired[symbol] = true
	if len(m.fired) == len(m.watch) {
		close(m.done)
	}
}

// macroBlocking refreshes the macro state at most once a minute.
func (m *LiveMonitor) macroBlocking(ctx context.Context, now time.Time) bool {
	m.mu.Lock()
	stale := now.Sub(m.macroCheck) >= macroRecheck
	m.mu.Unlock()
	if stale {
		_, blocking := m.macro.Today(ctx, now)
		m.mu.Lock()
		m.blocked, m.macroCheck = len(blocking) > 0, now
		m.mu.Unlock()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blocked
}

// Triggered: long fires at or above entry*(1-tol), short at or below entry*(1+tol).
func Triggered(price, entry float64, side models.Side, tol float64) bool {
	if price <= 0 {
		return false
	}
	if side == models.Long {
		return price >= entry*(1-tol)
	}
	return price <= entry*(1+tol)
}

var _ middleware.TickProcessor = (*LiveMonitor)(nil)
