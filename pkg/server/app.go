package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"ICTWatch/pkg/config"
	xhttp "ICTWatch/pkg/http"
	pkgkafka "ICTWatch/pkg/kafka"
	applogger "ICTWatch/pkg/logger"
	"ICTWatch/pkg/queue"
)

// ErrUnknownJob is returned by RunJob for names that were never registered.
var ErrUnknownJob = errors.New("unknown job")

// App encapsulates the process lifecycle: one-shot jobs, the cron loop and
// the long-running serve mode.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	consumer    *pkgkafka.Consumer
	queue       *queue.RedisQueue
	scheduler   *Scheduler
	jobs        map[string]Job
}

// New creates a new App. consumer and queueConsumer may be nil when Kafka or
// async delivery is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	queueConsumer *queue.RedisQueue,
	scheduler *Scheduler,
	jobs ...Job,
) *App {
	a := &App{
		cfg:         cfg,
		log:         log.With("app"),
		httpHandler: handler,
		consumer:    consumer,
		queue:       queueConsumer,
		scheduler:   scheduler,
		jobs:        make(map[string]Job, len(jobs)),
	}
	for _, j := range jobs {
		a.jobs[j.Name] = j
	}
	return a
}

// Jobs lists registered job names.
func (a *App) Jobs() []string {
	names := make([]string, 0, len(a.jobs))
	for n := range a.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RunJob runs one job to completion.
func (a *App) RunJob(ctx context.Context, name string) error {
	j, ok := a.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	a.log.Info("running job", applogger.String("job", name))
	return j.Run(ctx)
}

// Schedule runs the cron loop, and the delivery workers when async
// delivery is on, until interrupted.
func (a *App) Schedule(ctx context.Context) error {
	if err := a.startScheduler(); err != nil {
		return err
	}
	a.startQueue()
	a.waitForSignal(ctx)
	return a.shutdown()
}

// Serve runs the journal API, the setup archive consumer, the delivery
// workers and the scheduler until interrupted.
func (a *App) Serve(ctx context.Context) error {
	a.httpServer = xhttp.NewServer(a.httpHandler, a.log,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.metricsPath()),
	)
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start", applogger.Error(err))
		} else {
			a.log.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.Topic))
		}
	}

	a.startQueue()
	if err := a.startScheduler(); err != nil {
		a.log.Error("scheduler start", applogger.Error(err))
	}

	a.waitForSignal(ctx)
	return a.shutdown()
}

func (a *App) startScheduler() error {
	for _, name := range a.Jobs() {
		if err := a.scheduler.Add(a.jobs[name]); err != nil {
			return err
		}
	}
	if a.scheduler.Entries() == 0 {
		a.log.Warn("no jobs scheduled")
	}
	a.scheduler.Start()
	return nil
}

func (a *App) startQueue() {
	if a.queue == nil {
		return
	}
	if err := a.queue.Start(); err != nil {
		a.log.Error("delivery queue start", applogger.Error(err))
	}
}

func (a *App) metricsPath() string {
	if !a.cfg.Metrics.Enabled {
		return ""
	}
	return a.cfg.Metrics.Path
}

func (a *App) waitForSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	select {
	case <-sigCh:
		a.log.Info("shutdown signal received")
	case <-ctx.Done():
	}
}

func (a *App) shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
}

// shutdown stops intake first, then drains workers.
func (a *App) shutdown() error {
	ctx, cancel := a.shutdownContext()
	defer cancel()
	var errs []error

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("kafka consumer: %w", err))
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("delivery queue: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.log.Error("shutdown incomplete", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
