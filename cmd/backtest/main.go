package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"ICTWatch/internal/di"
	"ICTWatch/internal/repository"
	"ICTWatch/internal/services/backtest"
	"ICTWatch/internal/usecase"
	"ICTWatch/pkg/config"
	"ICTWatch/pkg/logger"
)

const (
	usage      = "usage: backtest <run|dry> [flags]\n"
	sampleRows = 100
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "run":
		os.Exit(run(os.Args[2:]))
	case "dry":
		os.Exit(dry(os.Args[2:]))
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func load(fs *flag.FlagSet, args []string, configPath, journal *string) *config.Config {
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *journal != "" {
		cfg.Journal.Path = *journal
	}
	return cfg
}

// dry parses the CSV journal and prints the trades; no network.
func dry(args []string) int {
	fs := flag.NewFlagSet("dry", flag.ContinueOnError)
	configPath := fs.String("config", "config/config.yaml", "config file path")
	journalPath := fs.String("journal", "", "journal CSV (overrides config)")
	limit := fs.Int("limit", 10, "newest trades to load")
	cfg := load(fs, args, configPath, journalPath)

	loc := cfg.Location()
	j := repository.NewCSVJournal(cfg.Journal.Path, logger.Nop())
	trades, err := usecase.LoadTrades(context.Background(), j, *limit, loc)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("Loaded %d trades\n", len(trades))
	for _, t := range trades {
		fmt.Println(t.Time.In(loc).Format("2006-01-02 15:04 PT"), t.Symbol, t.Direction,
			t.Entry, t.Stop, t.Targets[0], t.Targets[1], t.Targets[2], t.Targets[3])
	}
	return 0
}

func run(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "config/config.yaml", "config file path")
	journalPath := fs.String("journal", "", "journal CSV (overrides config)")
	days := fs.Int("days", 0, "forward window in days (default from config)")
	tf := fs.Int("tf", 0, "bar size in minutes (default from config)")
	limit := fs.Int("limit", 0, "newest trades to replay (default from config)")
	post := fs.Bool("post", false, "post the summary to the watchlist webhook")
	cfg := load(fs, args, configPath, journalPath)

	if err := cfg.RequirePolygonKey(); err != nil {
		fmt.Fprintln(os.Stderr, "POLYGON_API_KEY missing; set it in the environment.")
		return 2
	}
	if *days > 0 {
		cfg.Backtest.Days = *days
	}
	if *tf > 0 {
		cfg.Backtest.TFMin = *tf
	}
	if *limit > 0 {
		cfg.Backtest.Limit = *limit
	}

	lg, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	bt, cleanup, err := di.InitializeBacktester(cfg, lg)
	if err != nil {
		log.Fatalf("backtest initialization failed: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trades, err := usecase.LoadTrades(ctx, bt.Journal, cfg.Backtest.Limit, bt.Loc)
	if err != nil {
		lg.Error("load trades", logger.Error(err))
		return 1
	}
	rep := bt.Runner.Run(ctx, trades)

	s := rep.Summary
	fmt.Println("== Summary ==")
	fmt.Printf("trades: %d\nwinrate_pct: %v\navg_R: %v\nexpectancy_R: %v\nmax_drawdown_R: %v\nwins: %d\nlosses: %d\nflats: %d\n",
		s.Trades, s.WinRatePct, s.AvgR, s.ExpectancyR, s.MaxDrawdownR, s.Wins, s.Losses, s.Flats)
	fmt.Println("\n== Sample rows ==")
	printOutcomes(rep, bt.Loc)

	if *post {
		title := backtest.Header(len(trades), cfg.Backtest.TFMin, cfg.Backtest.Days, cfg.Backtest.Limit)
		if err := bt.Notifier.SendWatchlist(ctx, title, s.Lines()); err != nil {
			lg.Error("post summary", logger.Error(err))
			return 1
		}
	}
	return 0
}

func printOutcomes(rep usecase.BacktestReport, loc *time.Location) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ts\tsymbol\tdirection\tentry\tstop\trealized_R\thit_seq\tstop_hit")
	for i, o := range rep.Outcomes {
		if i == sampleRows {
			break
		}
		t := o.Trade
		if o.Err != nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%v\terror: %v\t\t\n", t.Time.In(loc).Format("2006-01-02 15:04"), t.Symbol, t.Direction, t.Entry, t.Stop, o.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%v\t%.3f\t%s\t%t\n", t.Time.In(loc).Format("2006-01-02 15:04"), t.Symbol, t.Direction,
			t.Entry, t.Stop, o.Result.RealizedR, strings.Join(o.Result.HitSeq, ">"), o.Result.StopHit)
	}
	_ = w.Flush()
	if n := len(rep.Outcomes); n > sampleRows {
		fmt.Printf("... (%d more)\n", n-sampleRows)
	}
}
