package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ICTWatch/internal/di"
	"ICTWatch/pkg/config"
	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/server"
)

const usage = `usage: scanner [-config path] <command>

commands:
  premarket   scan and post the premarket watchlist
  evening     scan and post the evening watchlist
  weekly      scan and post the weekly watchlist
  macro       post the macro and sector update
  live        watch premarket setups on the realtime stream until the close
  schedule    run the cron schedule in the configured timezone
  serve       journal API, /metrics, archive consumer, delivery workers and schedule
`

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd := flag.Arg(0)

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if cmd != "serve" {
		if err := cfg.RequirePolygonKey(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	lg, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	lg.Info("starting", logger.String("command", cmd), logger.String("env", cfg.Environment), logger.String("tz", cfg.Timezone))

	app, cleanup, err := di.InitializeApp(cfg, lg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "schedule":
		err = app.Schedule(ctx)
	case "serve":
		err = app.Serve(ctx)
	default:
		err = app.RunJob(ctx, cmd)
	}
	if errors.Is(err, server.ErrUnknownJob) {
		flag.Usage()
		cleanup()
		os.Exit(2)
	}
	if err != nil {
		lg.Error("command failed", logger.String("command", cmd), logger.Error(err))
		cleanup()
		os.Exit(1)
	}
}
