package nearmiss

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bubble/pkg/platform/sentinel"
	"bubble/pkg/requestcontext"
)

// Runner is the part of Service the scheduler drives.
type Runner interface {
	Run(ctx context.Context, date time.Time) ([]Event, error)
}

// RunFinder tells the scheduler whether a date was already committed, so a
// restart after the run hour does not redo it.
type RunFinder interface {
	FindRun(ctx context.Context, runDate string) (*RunSummary, error)
}

// Scheduler triggers one run per day for the previous date once the local
// clock passes RunHour. A failed run is retried on the next tick.
type Scheduler struct {
	runner   Runner
	runs     RunFinder
	runHour  int
	location *time.Location
	interval time.Duration
	logger   *slog.Logger
	clock    func() time.Time

	lastDone string
}

type SchedulerOption func(*Scheduler)

// WithCheckInterval sets how often the scheduler looks at the clock.
func WithCheckInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func NewScheduler(runner Runner, runs RunFinder, runHour int, location *time.Location, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	s := &Scheduler{
		runner:   runner,
		runs:     runs,
		runHour:  runHour,
		location: location,
		interval: time.Minute,
		logger:   logger,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run checks the clock on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs the previous day if it is due and not yet done. It reports
// whether a run committed on this tick.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.clock().In(s.location)
	if now.Hour() < s.runHour {
		return false
	}
	target := now.AddDate(0, 0, -1)
	runDate := target.Format(time.DateOnly)
	if runDate == s.lastDone {
		return false
	}

	if s.runs != nil {
		_, err := s.runs.FindRun(ctx, runDate)
		switch {
		case err == nil:
			s.lastDone = runDate
			return false
		case !errors.Is(err, sentinel.ErrNotFound):
			s.logger.WarnContext(ctx, "could not check near-miss run state", "run_date", runDate, "error", err)
		}
	}

	if _, err := s.runner.Run(requestcontext.WithTime(ctx, now), target); err != nil {
		s.logger.ErrorContext(ctx, "scheduled near-miss run failed; will retry",
			"run_date", runDate,
			"error", err,
		)
		return false
	}
	s.lastDone = runDate
	return true
}
