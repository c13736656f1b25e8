package nearmiss

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"bubble/internal/history"
	"bubble/internal/nearmiss/metrics"
	"bubble/internal/trust"
	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
	"bubble/pkg/requestcontext"
)

// PairSource yields the canonical pairs eligible for comparison.
type PairSource interface {
	EligiblePairs(ctx context.Context) ([]trust.Pair, error)
}

// EventStore is the near-miss event log.
type EventStore interface {
	// CommitRun stores the run summary and all of its events as one unit.
	// Events whose id already exists keep their stored state.
	CommitRun(ctx context.Context, run RunSummary, events []Event) error
	FindRun(ctx context.Context, runDate string) (*RunSummary, error)
	ListByRunDate(ctx context.Context, runDate string) ([]Event, error)
	// ListDue returns undelivered events with DeliverAfter at or before now,
	// oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]Event, error)
	MarkDelivered(ctx context.Context, ids []id.EventID, at time.Time) error
}

// Config tunes a run.
type Config struct {
	Match       MatchConfig
	Workers     int
	MorningHour int
	Location    *time.Location
}

// DefaultConfig compares on four workers in UTC and delivers at 08:00.
func DefaultConfig() Config {
	return Config{
		Match:       DefaultMatchConfig(),
		Workers:     4,
		MorningHour: 8,
		Location:    time.UTC,
	}
}

// Service runs the nightly comparison.
type Service struct {
	reader  history.Reader
	pairs   PairSource
	events  EventStore
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithTracer overrides the global otel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs the near-miss service.
func New(reader history.Reader, pairs PairSource, events EventStore, opts ...Option) (*Service, error) {
	if reader == nil {
		return nil, errors.New("history reader is required")
	}
	if pairs == nil {
		return nil, errors.New("pair source is required")
	}
	if events == nil {
		return nil, errors.New("event store is required")
	}
	s := &Service{
		reader: reader,
		pairs:  pairs,
		events: events,
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.Workers <= 0 {
		s.cfg.Workers = 1
	}
	if s.cfg.Location == nil {
		s.cfg.Location = time.UTC
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("bubble/nearmiss")
	}
	return s, nil
}

// Window returns the run date label and its [start, end) window in the
// configured zone for the calendar day containing date.
func (s *Service) Window(date time.Time) (runDate string, start, end time.Time) {
	y, m, d := date.In(s.cfg.Location).Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, s.cfg.Location)
	end = start.AddDate(0, 0, 1)
	return start.Format(time.DateOnly), start, end
}

// DeliverAfter is MorningHour on the day after the run date.
func (s *Service) DeliverAfter(date time.Time) time.Time {
	_, _, end := s.Window(date)
	return end.Add(time.Duration(s.cfg.MorningHour) * time.Hour)
}

// Run compares every eligible pair for the day containing date and commits
// the resulting events. Nothing is committed when any pair fails or ctx
// ends first; rerunning the same date yields the same event ids.
func (s *Service) Run(ctx context.Context, date time.Time) ([]Event, error) {
	started := time.Now()
	runDate, start, end := s.Window(date)

	ctx, span := s.tracer.Start(ctx, "nearmiss.Run",
		trace.WithAttributes(attribute.String("run_date", runDate)),
	)
	defer span.End()

	events, summary, err := s.run(ctx, runDate, start, end, s.DeliverAfter(date))
	if s.metrics != nil {
		s.metrics.ObserveRun(started)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run aborted")
		if s.metrics != nil {
			s.metrics.IncrementRun("aborted")
		}
		s.logger.ErrorContext(ctx, "near-miss run aborted",
			"run_date", runDate,
			"error", err,
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("pairs", summary.Pairs),
		attribute.Int("events", summary.Events),
		attribute.Int("corrupt", summary.Corrupt),
	)
	if s.metrics != nil {
		s.metrics.IncrementRun("committed")
		s.metrics.AddCommitted(summary.Pairs, summary.Events, summary.Corrupt)
	}
	s.logger.InfoContext(ctx, "near-miss run committed",
		"run_date", runDate,
		"pairs", summary.Pairs,
		"events", summary.Events,
		"corrupt", summary.Corrupt,
		"duration", time.Since(started),
	)
	return events, nil
}

func (s *Service) run(ctx context.Context, runDate string, start, end, deliverAfter time.Time) ([]Event, RunSummary, error) {
	if _, err := s.reader.Sweep(ctx); err != nil {
		return nil, RunSummary{}, systemic(err, "history sweep failed")
	}
	pairs, err := s.pairs.EligiblePairs(ctx)
	if err != nil {
		return nil, RunSummary{}, systemic(err, "failed to load eligible pairs")
	}

	detectedAt := requestcontext.Now(ctx)
	results := make([]*Event, len(pairs))
	var corrupt atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			prox, found, skipped, err := s.comparePair(gctx, pair, start, end)
			corrupt.Add(int64(skipped))
			if err != nil || !found {
				return err
			}
			results[i] = &Event{
				ID:               EventID(runDate, pair),
				RunDate:          runDate,
				UserA:            pair.A,
				UserB:            pair.B,
				ApproxTime:       prox.ApproxTime,
				DistanceMeters:   int(math.Round(prox.DistanceMeters)),
				TimeDeltaMinutes: int(math.Round(prox.TimeDelta.Minutes())),
				DetectedAt:       detectedAt,
				DeliverAfter:     deliverAfter,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, RunSummary{}, systemic(err, "pair comparison failed")
	}
	if err := ctx.Err(); err != nil {
		return nil, RunSummary{}, dErrors.Wrap(err, dErrors.CodeTimeout, "near-miss run cancelled")
	}

	events := make([]Event, 0, len(results))
	for _, ev := range results {
		if ev != nil {
			events = append(events, *ev)
		}
	}
	summary := RunSummary{
		RunDate:     runDate,
		CommittedAt: requestcontext.Now(ctx),
		Pairs:       len(pairs),
		Events:      len(events),
		Corrupt:     int(corrupt.Load()),
	}
	if err := s.events.CommitRun(ctx, summary, events); err != nil {
		return nil, RunSummary{}, systemic(err, "failed to commit near-miss run")
	}
	return events, summary, nil
}

// comparePair decrypts both series for the window, matches them and wipes
// the decrypted points before returning. Points from TimeWindow before start
// are read too so a near-miss spanning midnight belongs to the run that owns
// its ApproxTime.
func (s *Service) comparePair(ctx context.Context, pair trust.Pair, start, end time.Time) (Proximity, bool, int, error) {
	ctx, span := s.tracer.Start(ctx, "nearmiss.comparePair")
	defer span.End()

	from := start.Add(-s.cfg.Match.TimeWindow)
	a, err := s.reader.Query(ctx, pair.A, from, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history unavailable")
		return Proximity{}, false, 0, err
	}
	defer a.Wipe()
	b, err := s.reader.Query(ctx, pair.B, from, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history unavailable")
		return Proximity{}, false, a.Corrupt, err
	}
	defer b.Wipe()

	prox, found := MatchInWindow(a.Points, b.Points, s.cfg.Match, start, end)
	span.SetAttributes(attribute.Bool("matched", found))
	return prox, found, a.Corrupt + b.Corrupt, nil
}

// Events returns the committed events of a run date.
func (s *Service) Events(ctx context.Context, date time.Time) ([]Event, error) {
	runDate, _, _ := s.Window(date)
	events, err := s.events.ListByRunDate(ctx, runDate)
	if err != nil {
		return nil, systemic(err, "failed to load near-miss events")
	}
	return events, nil
}

// systemic keeps timeouts and existing domain errors, and marks everything
// else as an unavailable dependency.
func systemic(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	if dErrors.HasCode(err, dErrors.CodeTimeout) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
}
