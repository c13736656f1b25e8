package nearmiss

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bubble/pkg/platform/sentinel"
	"bubble/pkg/requestcontext"
)

type fakeRunner struct {
	dates []time.Time
	nows  []time.Time
	err   error
}

func (r *fakeRunner) Run(ctx context.Context, date time.Time) ([]Event, error) {
	r.dates = append(r.dates, date)
	r.nows = append(r.nows, requestcontext.Now(ctx))
	return nil, r.err
}

type fakeRuns map[string]bool

func (f fakeRuns) FindRun(_ context.Context, runDate string) (*RunSummary, error) {
	if f[runDate] {
		return &RunSummary{RunDate: runDate}, nil
	}
	return nil, sentinel.ErrNotFound
}

func newTestScheduler(runner Runner, runs RunFinder, now *time.Time) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScheduler(runner, runs, 3, time.UTC, logger, WithClock(func() time.Time { return *now }))
}

func TestSchedulerTick(t *testing.T) {
	ctx := context.Background()

	t.Run("waits for the run hour", func(t *testing.T) {
		now := time.Date(2026, 4, 11, 2, 59, 0, 0, time.UTC)
		runner := &fakeRunner{}
		s := newTestScheduler(runner, fakeRuns{}, &now)

		assert.False(t, s.Tick(ctx))
		assert.Empty(t, runner.dates)
	})

	t.Run("runs the previous day once", func(t *testing.T) {
		now := time.Date(2026, 4, 11, 3, 0, 0, 0, time.UTC)
		runner := &fakeRunner{}
		s := newTestScheduler(runner, fakeRuns{}, &now)

		assert.True(t, s.Tick(ctx))
		now = now.Add(time.Hour)
		assert.False(t, s.Tick(ctx))

		require.Len(t, runner.dates, 1)
		assert.Equal(t, "2026-04-10", runner.dates[0].Format(time.DateOnly))
		assert.Equal(t, time.Date(2026, 4, 11, 3, 0, 0, 0, time.UTC), runner.nows[0])
	})

	t.Run("failed run is retried on the next tick", func(t *testing.T) {
		now := time.Date(2026, 4, 11, 3, 0, 0, 0, time.UTC)
		runner := &fakeRunner{err: errors.New("history unavailable")}
		s := newTestScheduler(runner, fakeRuns{}, &now)

		assert.False(t, s.Tick(ctx))
		runner.err = nil
		now = now.Add(time.Minute)
		assert.True(t, s.Tick(ctx))
		assert.Len(t, runner.dates, 2)
	})

	t.Run("already committed date is skipped after a restart", func(t *testing.T) {
		now := time.Date(2026, 4, 11, 9, 0, 0, 0, time.UTC)
		runner := &fakeRunner{}
		s := newTestScheduler(runner, fakeRuns{"2026-04-10": true}, &now)

		assert.False(t, s.Tick(ctx))
		assert.Empty(t, runner.dates)
	})

	t.Run("next day runs again", func(t *testing.T) {
		now := time.Date(2026, 4, 11, 3, 30, 0, 0, time.UTC)
		runner := &fakeRunner{}
		s := newTestScheduler(runner, fakeRuns{}, &now)

		assert.True(t, s.Tick(ctx))
		now = now.Add(24 * time.Hour)
		assert.True(t, s.Tick(ctx))
		require.Len(t, runner.dates, 2)
		assert.Equal(t, "2026-04-11", runner.dates[1].Format(time.DateOnly))
	})
}
