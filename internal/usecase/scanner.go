package usecase

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	"ICTWatch/pkg/logger"
)

// Scanner fans the analyzer out over the universe with bounded concurrency.
// The limit bounds in-flight market-data calls, not CPU use.
type Scanner struct {
	analyzer    SymbolAnalyzer
	universe    func() []string
	concurrency int
	timeout     time.Duration
	metrics     domrepo.Metrics
	log         *logger.Logger
}

func NewScanner(analyzer SymbolAnalyzer, universe func() []string, concurrency int, timeout time.Duration, metrics domrepo.Metrics, log *logger.Logger) *Scanner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scanner{
		analyzer:    analyzer,
		universe:    universe,
		concurrency: concurrency,
		timeout:     timeout,
		metrics:     metrics,
		log:         log.With("scanner"),
	}
}

// Scan returns accepted setups sorted by score, highest first. Ties keep
// universe order. Failed symbols are logged by the analyzer and dropped.
func (s *Scanner) Scan(ctx context.Context) []*models.Setup {
	return s.ScanSymbols(ctx, s.universe())
}

func (s *Scanner) ScanSymbols(ctx context.Context, symbols []string) []*models.Setup {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results := make([]Result, len(symbols))
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = Result{Symbol: sym, Err: ctx.Err()}
				return nil
			}
			results[i] = s.analyzer.Analyze(ctx, sym)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*models.Setup, 0, len(results))
	failed := 0
	for _, r := range results {
		switch {
		case r.Accepted():
			out = append(out, r.Setup)
		case r.Err != nil:
			failed++
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	s.metrics.RecordLatency("scan", time.Since(start).Seconds())
	s.log.Info("scan complete",
		logger.Int("symbols", len(symbols)),
		logger.Int("accepted", len(out)),
		logger.Int("failed", failed),
		logger.Duration("duration", time.Since(start)),
	)
	return out
}
