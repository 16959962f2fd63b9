package server

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"ICTWatch/pkg/logger"
)

// Job is a named unit of work the scheduler or the CLI can run.
type Job struct {
	Name    string
	Spec    string // cron expression; empty means CLI only
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs jobs on cron specs in a fixed location. A failing job is
// logged and the schedule continues. Runs of the same job never overlap.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
	ctx  context.Context
	stop context.CancelFunc
}

func NewScheduler(loc *time.Location, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		log:  log.With("scheduler"),
		ctx:  ctx,
		stop: cancel,
	}
}

// Add registers j; jobs without a cron expression are skipped.
func (s *Scheduler) Add(j Job) error {
	if j.Spec == "" {
		return nil
	}
	run := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() { s.run(j) }))
	if _, err := s.cron.AddJob(j.Spec, run); err != nil {
		return fmt.Errorf("schedule %s %q: %w", j.Name, j.Spec, err)
	}
	s.log.Info("job scheduled", logger.String("job", j.Name), logger.String("spec", j.Spec))
	return nil
}

func (s *Scheduler) run(j Job) {
	ctx := s.ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked", logger.String("job", j.Name), logger.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := j.Run(ctx); err != nil {
		s.log.Error("job failed", logger.String("job", j.Name), logger.Error(err))
		return
	}
	s.log.Info("job done", logger.String("job", j.Name), logger.Duration("duration", time.Since(start)))
}

// Entries is the number of scheduled jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels running jobs and waits for them until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stop()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
