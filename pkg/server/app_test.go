package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/pkg/config"
	"ICTWatch/pkg/logger"
)

func testApp(t *testing.T, jobs ...Job) *App {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.ShutdownTimeout = time.Second
	return New(cfg, logger.Nop(), nil, nil, nil, NewScheduler(time.UTC, logger.Nop()), jobs...)
}

func TestApp_RunJob(t *testing.T) {
	var ran []string
	job := func(name string) Job {
		return Job{Name: name, Run: func(context.Context) error {
			ran = append(ran, name)
			return nil
		}}
	}
	app := testApp(t, job("weekly"), job("premarket"))

	assert.Equal(t, []string{"premarket", "weekly"}, app.Jobs())
	require.NoError(t, app.RunJob(context.Background(), "weekly"))
	assert.Equal(t, []string{"weekly"}, ran)

	err := app.RunJob(context.Background(), "nightly")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestApp_RunJob_Timeout(t *testing.T) {
	app := testApp(t, Job{Name: "slow", Timeout: 20 * time.Millisecond, Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	err := app.RunJob(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestApp_Schedule(t *testing.T) {
	noop := func(context.Context) error { return nil }

	t.Run("registers jobs with a cron expression", func(t *testing.T) {
		app := testApp(t,
			Job{Name: "premarket", Spec: "0 6 * * 1-5", Run: noop},
			Job{Name: "live", Run: noop},
		)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, app.Schedule(ctx))
		assert.Equal(t, 1, app.scheduler.Entries())
	})

	t.Run("bad cron expression", func(t *testing.T) {
		app := testApp(t, Job{Name: "weekly", Spec: "every sunday", Run: noop})
		err := app.Schedule(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weekly")
	})
}

func TestScheduler_RunSurvivesFailures(t *testing.T) {
	s := NewScheduler(nil, logger.Nop())

	assert.NotPanics(t, func() {
		s.run(Job{Name: "boom", Run: func(context.Context) error { panic("boom") }})
	})
	assert.NotPanics(t, func() {
		s.run(Job{Name: "fail", Run: func(context.Context) error { return errors.New("webhook down") }})
	})

	var deadline bool
	s.run(Job{Name: "bounded", Timeout: time.Minute, Run: func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	}})
	assert.True(t, deadline)

	require.NoError(t, s.Stop(context.Background()))
}
