package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	"ICTWatch/internal/services/macro"
	"ICTWatch/pkg/logger"
)

const (
	KindEntry     = "entry"
	KindEntryLive = "entry-live"
	KindWatchlist = "watchlist"
)

// SetupScanner produces ranked setups.
type SetupScanner interface {
	Scan(ctx context.Context) []*models.Setup
}

// MacroSource reports today's macro events and renders their summary line.
type MacroSource interface {
	Today(ctx context.Context, now time.Time) (all, blocking []macro.Event)
	Header(evs []macro.Event) string
}

// SectorSource renders the sector breadth line.
type SectorSource interface {
	Line(ctx context.Context) string
}

type WatchlistConfig struct {
	Rows           int
	EntryAlerts    int
	MinScore       float64
	ProjectionMin  float64
	ProjectionMax  float64
	ProjectionDays int
	Loc            *time.Location
}

// Watchlist runs one scan-and-post cycle for a schedule slot.
type Watchlist struct {
	scanner   SetupScanner
	macro     MacroSource
	sectors   SectorSource
	notifier  domrepo.Notifier
	journal   domrepo.Journal
	publisher domrepo.SetupPublisher
	cfg       WatchlistConfig
	metrics   domrepo.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewWatchlist(
	scanner SetupScanner,
	macroSrc MacroSource,
	sectors SectorSource,
	notifier domrepo.Notifier,
	journal domrepo.Journal,
	publisher domrepo.SetupPublisher,
	cfg WatchlistConfig,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *Watchlist {
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return &Watchlist{
		scanner:   scanner,
		macro:     macroSrc,
		sectors:   sectors,
		notifier:  notifier,
		journal:   journal,
		publisher: publisher,
		cfg:       cfg,
		metrics:   metrics,
		log:       log.With("watchlist"),
		now:       time.Now,
	}
}

// Post scans, posts the summary, journals a snapshot and, unless a macro
// release is inside its block window, posts and journals the top entries.
func (w *Watchlist) Post(ctx context.Context, kind string) error {
	w.metrics.RecordScan(kind)
	setups := w.scanner.Scan(ctx)
	now := w.now()

	all, blocking := w.macro.Today(ctx, now)
	lines := []string{w.macro.Header(all), w.sectors.Line(ctx)}
	lines = append(lines, w.rows(setups)...)

	var errs []error
	if err := w.notifier.SendWatchlist(ctx, WatchlistTitle(kind, now, w.cfg.Loc), lines); err != nil {
		errs = append(errs, fmt.Errorf("post watchlist: %w", err))
	}

	top := head(setups, w.cfg.Rows)
	if len(top) > 0 {
		rows := make([]models.JournalRow, len(top))
		for i, s := range top {
			rows[i] = models.BuildJournalRow(KindWatchlist, s, now, w.cfg.Loc)
		}
		if err := w.journal.Append(ctx, rows...); err != nil {
			errs = append(errs, fmt.Errorf("journal watchlist: %w", err))
		}
	}

	if len(blocking) > 0 {
		w.log.Info("macro window active, entries held",
			logger.String("kind", kind),
			logger.String("event", blocking[0].Title),
		)
		return errors.Join(errs...)
	}

	for _, s := range head(setups, w.cfg.EntryAlerts) {
		if err := w.notifier.SendEntry(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("post entry %s: %w", s.Symbol, err))
		}
		if err := w.journal.Append(ctx, models.BuildJournalRow(KindEntry, s, now, w.cfg.Loc)); err != nil {
			errs = append(errs, fmt.Errorf("journal entry %s: %w", s.Symbol, err))
		}
		if err := w.publisher.Publish(ctx, KindEntry, s); err != nil {
			w.log.Warn("setup publish failed", logger.String("symbol", s.Symbol), logger.Error(err))
		}
	}
	w.log.Info("watchlist posted",
		logger.String("kind", kind),
		logger.Int("setups", len(setups)),
	)
	return errors.Join(errs...)
}

func (w *Watchlist) rows(setups []*models.Setup) []string {
	top := head(setups, w.cfg.Rows)
	if len(top) == 0 {
		return []string{fmt.Sprintf("No Setups (min score %d, proj %d–%d%% over %dd)",
			int(w.cfg.MinScore), int(math.Round(w.cfg.ProjectionMin*100)), int(math.Round(w.cfg.ProjectionMax*100)), w.cfg.ProjectionDays)}
	}
	out := make([]string, len(top))
	for i, s := range top {
		out[i] = SetupLine(s)
	}
	return out
}

// WatchlistTitle is "{Kind} Watchlist – YYYY-MM-DD HH:MM PT".
func WatchlistTitle(kind string, now time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s Watchlist – %s PT", titleCase(kind), now.In(loc).Format("2006-01-02 15:04"))
}

// SetupLine renders one watchlist row.
func SetupLine(s *models.Setup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s – Entry %s | Stop %s | T1 %s | Score %d • Proj:%s%%",
		s.Symbol, strings.ToUpper(string(s.Direction)), num(s.Entry), num(s.Stop), num(s.Targets[0]),
		int(s.Score), num(s.ProjMovePct))
	if bs := s.Bias; bs.EarningsSoon {
		days := "?"
		if bs.EarningsDaysTo != nil {
			days = strconv.Itoa(*bs.EarningsDaysTo)
		}
		fmt.Fprintf(&b, " • E:%s (%sd)", bs.EarningsDate, days)
		if bs.ERDir != "" {
			fmt.Fprintf(&b, " • ER:%s %d%%", bs.ERDir, int(math.Round(100*bs.ERConf)))
		}
	}
	return b.String()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func head(setups []*models.Setup, n int) []*models.Setup {
	if n >= 0 && len(setups) > n {
		return setups[:n]
	}
	return setups
}
