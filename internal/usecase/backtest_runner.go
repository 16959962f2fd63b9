package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	"ICTWatch/internal/services/backtest"
	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/util"
)

// TradeFromRow reads a journal row under its known column aliases. Rows with
// a missing field, an unreadable number or zero risk are not ok.
func TradeFromRow(row map[string]string, loc *time.Location) (models.Trade, bool) {
	n := make(map[string]string, len(row))
	for k, v := range row {
		n[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	tsRaw := util.Pick(n, "timestamp_pt", "timestamp", "time")
	sym := strings.ToUpper(util.Pick(n, "symbol", "ticker"))
	dir := util.Pick(n, "direction", "dir")
	if tsRaw == "" || sym == "" || dir == "" {
		return models.Trade{}, false
	}

	var px [6]float64
	for i, k := range []string{"entry", "stop", "t1", "t2", "t3", "t4"} {
		v, ok := util.ParseFloat(n[k])
		if !ok {
			return models.Trade{}, false
		}
		px[i] = v
	}
	ts, ok := util.ParseJournalTime(tsRaw, loc)
	if !ok {
		return models.Trade{}, false
	}
	tr, err := models.NewTrade(ts, sym, dir, px[0], px[1], [4]float64{px[2], px[3], px[4], px[5]}, util.Pick(n, "kind", "type"))
	if err != nil {
		return models.Trade{}, false
	}
	return tr, true
}

// LoadTrades parses every journal row, sorts by time and keeps the newest
// limit trades. Unparsable rows are skipped.
func LoadTrades(ctx context.Context, journal domrepo.Journal, limit int, loc *time.Location) ([]models.Trade, error) {
	rows, err := journal.ReadLast(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	trades := make([]models.Trade, 0, len(rows))
	for _, r := range rows {
		if tr, ok := TradeFromRow(r, loc); ok {
			trades = append(trades, tr)
		}
	}
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].Time.Before(trades[j].Time) })
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}
	return trades, nil
}

type BacktestConfig struct {
	Days        int
	TFMin       int
	Concurrency int
}

// BacktestReport holds per-trade outcomes in input order plus the summary
// of the trades that simulated.
type BacktestReport struct {
	Outcomes []models.TradeOutcome
	Summary  backtest.Summary
}

// BacktestRunner replays journal trades against forward bars.
type BacktestRunner struct {
	md      domrepo.MarketData
	cfg     BacktestConfig
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewBacktestRunner(md domrepo.MarketData, cfg BacktestConfig, metrics domrepo.Metrics, log *logger.Logger) *BacktestRunner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &BacktestRunner{md: md, cfg: cfg, metrics: metrics, log: log.With("backtest")}
}

func (r *BacktestRunner) Run(ctx context.Context, trades []models.Trade) BacktestReport {
	start := time.Now()
	outcomes := make([]models.TradeOutcome, len(trades))
	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Concurrency)
	for i, tr := range trades {
		i, tr := i, tr
		g.Go(func() error {
			outcomes[i] = r.simulate(ctx, tr)
			return nil
		})
	}
	_ = g.Wait()

	realized := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			r.log.Warn("trade skipped", logger.String("symbol", o.Trade.Symbol), logger.Error(o.Err))
			continue
		}
		realized = append(realized, o.Result.RealizedR)
		r.metrics.RecordBacktest(o.Result.RealizedR)
	}
	rep := BacktestReport{Outcomes: outcomes, Summary: backtest.Summarize(realized)}
	r.metrics.RecordLatency("backtest", time.Since(start).Seconds())
	r.log.Info("backtest complete",
		logger.Int("trades", len(trades)),
		logger.Int("simulated", len(realized)),
		logger.Float64("avg_r", rep.Summary.AvgR),
	)
	return rep
}

// simulate fetches start-1d through start+days+1d and keeps bars from the
// trade timestamp on.
func (r *BacktestRunner) simulate(ctx context.Context, tr models.Trade) models.TradeOutcome {
	tf := domrepo.Timeframe{Multiplier: r.cfg.TFMin, Timespan: domrepo.Minute}
	bars, err := r.md.FetchBars(ctx, tr.Symbol, tf, tr.Time.AddDate(0, 0, -1), tr.Time.AddDate(0, 0, r.cfg.Days+1))
	if err != nil {
		r.metrics.RecordError("backtest_fetch")
		return models.TradeOutcome{Trade: tr, Err: fmt.Errorf("fetch bars: %w", err)}
	}
	return models.TradeOutcome{Trade: tr, Result: backtest.Simulate(tr, models.Since(bars, tr.Time))}
}
