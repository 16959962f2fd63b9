package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	"ICTWatch/internal/services/bias"
	"ICTWatch/internal/services/features"
	"ICTWatch/internal/services/scoring"
	"ICTWatch/internal/services/structure"
	"ICTWatch/pkg/logger"
)

// Reject reasons. They are filtering outcomes, not failures.
var (
	ErrInsufficientBars = errors.New("insufficient bars")
	ErrNoBias           = errors.New("no directional bias")
	ErrNoZone           = errors.New("no qualifying zone")
	ErrBelowMinScore    = errors.New("score below minimum")
	ErrProjectionBand   = errors.New("projection outside band")
)

const (
	ProjectionTrend = "trend"
	ProjectionIV    = "iv"
)

// Result is the outcome of one symbol analysis. Exactly one of Setup, Reject
// or Err is set.
type Result struct {
	Symbol string
	Setup  *models.Setup
	Reject error
	Err    error
}

func (r Result) Accepted() bool { return r.Setup != nil }

// AnalyzerConfig carries every analyzer tunable.
type AnalyzerConfig struct {
	LookbackDays int
	TimeframeMin int
	MinBars      int
	ATRWindow    int
	EarningsDays int
	HTFLookback  int
	MinScore     float64

	SwingN       int
	BOSATRMult   float64
	FVGATRMult   float64
	OBLookback   int
	LiquidityTol float64

	ProjectionMode string
	ProjectionDays int
	ProjectionMin  float64
	ProjectionMax  float64

	Weights scoring.Weights
	Options scoring.OptionParams
	GEX     bias.GEXParams
	Loc     *time.Location
}

// SymbolAnalyzer turns one ticker into a Result.
type SymbolAnalyzer interface {
	Analyze(ctx context.Context, symbol string) Result
}

// SetupAnalyzer runs FETCH, DETECT, BIAS, SCORE/FILTER then ACCEPT or REJECT.
type SetupAnalyzer struct {
	md      domrepo.MarketData
	cfg     AnalyzerConfig
	metrics domrepo.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewSetupAnalyzer(md domrepo.MarketData, cfg AnalyzerConfig, metrics domrepo.Metrics, log *logger.Logger) *SetupAnalyzer {
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return &SetupAnalyzer{md: md, cfg: cfg, metrics: metrics, log: log.With("analyzer"), now: time.Now}
}

func (a *SetupAnalyzer) Analyze(ctx context.Context, symbol string) Result {
	start := time.Now()
	res := a.analyze(ctx, symbol)
	res.Symbol = symbol
	a.metrics.RecordLatency("analyze", time.Since(start).Seconds())

	switch {
	case res.Err != nil:
		a.metrics.RecordError("analyze")
		a.log.Warn("analyze failed", logger.String("symbol", symbol), logger.Error(res.Err))
	case res.Reject != nil:
		a.metrics.RecordReject(rejectLabel(res.Reject))
		a.log.Debug("rejected", logger.String("symbol", symbol), logger.String("reason", res.Reject.Error()))
	default:
		a.metrics.RecordSetup(symbol, res.Setup.Score)
	}
	return res
}

func (a *SetupAnalyzer) analyze(ctx context.Context, symbol string) Result {
	now := a.now()
	cfg := a.cfg

	// FETCH
	tf := domrepo.Timeframe{Multiplier: cfg.TimeframeMin, Timespan: domrepo.Minute}
	raw, err := a.md.FetchBars(ctx, symbol, tf, now.AddDate(0, 0, -cfg.LookbackDays), now)
	if err != nil {
		return Result{Err: fmt.Errorf("fetch bars: %w", err)}
	}
	bars, err := models.NewBarSeries(raw)
	if err != nil {
		return Result{Err: err}
	}
	if len(bars) < cfg.MinBars {
		return Result{Reject: fmt.Errorf("%w: %d < %d", ErrInsufficientBars, len(bars), cfg.MinBars)}
	}

	// DETECT
	swings := structure.Swings(bars, cfg.SwingN)
	events := structure.BreakOfStructure(bars, swings, cfg.BOSATRMult)
	fvgs := structure.FairValueGaps(bars, cfg.FVGATRMult)
	obs := structure.OrderBlocks(bars, events, cfg.OBLookback)
	liq := structure.EqualHighsLows(bars, cfg.LiquidityTol)

	dir, ok := MajorityDirection(events, 3)
	if !ok {
		return Result{Reject: ErrNoBias}
	}
	zone, ok := LatestZone(dir, fvgs, obs)
	if !ok {
		return Result{Reject: ErrNoZone}
	}
	side, entry, stop := models.Long, zone.Mid(), zone.Low
	if dir == models.Bear {
		side, stop = models.Short, zone.High
	}
	entry, stop = scoring.RoundCents(entry), scoring.RoundCents(stop)
	targets, err := scoring.TargetLadder(entry, stop, liq.All())
	if err != nil {
		return Result{Reject: fmt.Errorf("%w: %v", ErrNoZone, err)}
	}

	// BIAS
	chain, err := a.md.FetchOptionsChain(ctx, symbol)
	if err != nil {
		a.log.Debug("options chain unavailable", logger.String("symbol", symbol), logger.Error(err))
		chain = nil
	}
	spot := bars[len(bars)-1].Close
	snap := a.biasSnapshot(ctx, symbol, chain, spot, now)

	// SCORE / FILTER
	conf := scoring.Confluence{
		BOS:       len(events) > 0,
		FVG:       len(fvgs) > 0,
		OB:        len(obs) > 0,
		Liquidity: !liq.Empty(),
	}
	score := scoring.Score(conf, snap, features.MeanRange(bars, cfg.ATRWindow), true, cfg.Weights)
	if score < cfg.MinScore {
		return Result{Reject: fmt.Errorf("%w: %.0f < %.0f", ErrBelowMinScore, score, cfg.MinScore)}
	}

	proj, ok := a.projection(bars, chain)
	if !ok || proj < cfg.ProjectionMin || proj > cfg.ProjectionMax {
		return Result{Reject: fmt.Errorf("%w: %.4f", ErrProjectionBand, proj)}
	}

	// ACCEPT
	setup := &models.Setup{
		Symbol:      symbol,
		Direction:   side,
		Entry:       entry,
		Stop:        stop,
		Targets:     targets,
		Score:       score,
		Zones:       []models.Zone{zone},
		Bias:        snap,
		ProjMovePct: scoring.RoundTo(100*proj, 1),
		Option:      scoring.PickOption(chain, side, math.Abs(targets[0]-entry), now, cfg.Options),
		CreatedAt:   now,
	}
	if p, ok := structure.DetectStrat(bars); ok {
		setup.Strat = p.Name
	}
	setup.HTFBias = a.htfBias(ctx, symbol, now)
	return Result{Setup: setup}
}

func (a *SetupAnalyzer) biasSnapshot(ctx context.Context, symbol string, chain []models.OptionContract, spot float64, now time.Time) models.BiasSnapshot {
	snap := models.BiasSnapshot{
		DDOI:     bias.DealerPositioning(chain).Label(),
		OpexWeek: bias.IsOpexWeek(now.In(a.cfg.Loc)),
	}

	date, ok, err := a.md.FetchNextEarningsDate(ctx, symbol)
	if err != nil {
		a.log.Debug("earnings lookup failed", logger.String("symbol", symbol), logger.Error(err))
		return snap
	}
	if !ok {
		return snap
	}
	days := DaysBetween(now, date)
	snap.EarningsDate = date.Format("2006-01-02")
	snap.EarningsDaysTo = &days
	snap.EarningsSoon = days >= 0 && days <= a.cfg.EarningsDays
	if snap.EarningsSoon {
		g := bias.GammaExposure(chain, spot, a.cfg.GEX)
		mv := bias.PredictEarningsMove(g, &days)
		snap.GEX = &g
		snap.ERDir, snap.ERConf = mv.Direction, mv.Confidence
	}
	return snap
}

func (a *SetupAnalyzer) projection(bars []models.Bar, chain []models.OptionContract) (float64, bool) {
	if a.cfg.ProjectionMode == ProjectionIV {
		ivs := make([]float64, 0, len(chain))
		for _, c := range chain {
			ivs = append(ivs, c.ImpliedVol)
		}
		return features.ImpliedMove(ivs, a.cfg.ProjectionDays)
	}
	return features.ProjectionPct(models.Closes(bars), a.cfg.ProjectionDays)
}

// htfBias is informational; a failed daily fetch leaves it empty.
func (a *SetupAnalyzer) htfBias(ctx context.Context, symbol string, now time.Time) string {
	if a.cfg.HTFLookback <= 0 {
		return ""
	}
	daily, err := a.md.FetchBars(ctx, symbol, domrepo.TF1d, now.AddDate(0, 0, -a.cfg.HTFLookback), now)
	if err != nil || len(daily) < 2 {
		return ""
	}
	return structure.HTFBias(daily)
}

// MajorityDirection takes the strict majority over the last n BOS events.
func MajorityDirection(events []models.StructureEvent, n int) (models.Direction, bool) {
	if len(events) > n {
		events = events[len(events)-n:]
	}
	bull, bear := 0, 0
	for _, e := range events {
		switch e.Direction {
		case models.Bull:
			bull++
		case models.Bear:
			bear++
		}
	}
	switch {
	case bull > bear:
		return models.Bull, true
	case bear > bull:
		return models.Bear, true
	}
	return "", false
}

// LatestZone returns the most recent zone in dir across FVGs and order
// blocks. On an index tie the order block wins.
func LatestZone(dir models.Direction, fvgs, obs []models.Zone) (models.Zone, bool) {
	var (
		best  models.Zone
		found bool
	)
	for _, zs := range [][]models.Zone{fvgs, obs} {
		for _, z := range zs {
			if z.Direction != dir {
				continue
			}
			if !found || z.Index >= best.Index {
				best, found = z, true
			}
		}
	}
	return best, found
}

// DaysBetween counts calendar days between the UTC dates of from and to.
func DaysBetween(from, to time.Time) int {
	f, t := from.UTC(), to.UTC()
	fd := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	td := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(td.Sub(fd).Hours() / 24))
}

func rejectLabel(err error) string {
	for _, s := range []error{ErrInsufficientBars, ErrNoBias, ErrNoZone, ErrBelowMinScore, ErrProjectionBand} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "other"
}
