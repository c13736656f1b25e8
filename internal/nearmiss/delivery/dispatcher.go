// Package delivery hands committed near-miss events to the notification
// pipeline once their morning delivery time has passed.
package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bubble/internal/nearmiss"
	"bubble/internal/nearmiss/metrics"
	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
	"bubble/pkg/requestcontext"
)

// Publisher is the external notification emitter.
type Publisher interface {
	PublishNearMiss(ctx context.Context, ev nearmiss.Event) error
}

// DueStore is the slice of the event log the dispatcher needs.
type DueStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]nearmiss.Event, error)
	MarkDelivered(ctx context.Context, ids []id.EventID, at time.Time) error
}

// Dispatcher publishes due events and flags them delivered. Delivery is at
// least once: an event published just before a failed mark is sent again.
type Dispatcher struct {
	store     DueStore
	publisher Publisher
	interval  time.Duration
	batch     int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

func WithBatchSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batch = n
		}
	}
}

func New(store DueStore, publisher Publisher, opts ...Option) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	d := &Dispatcher{
		store:     store,
		publisher: publisher,
		interval:  time.Minute,
		batch:     500,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// DispatchDue publishes one batch of due events and returns how many were
// marked delivered. Events the publisher rejects stay due.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	due, err := d.store.ListDue(ctx, now, d.batch)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list due near-miss events")
	}

	delivered := make([]id.EventID, 0, len(due))
	for _, ev := range due {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := d.publisher.PublishNearMiss(ctx, ev); err != nil {
			if d.metrics != nil {
				d.metrics.IncrementDeliveryFailure()
			}
			d.logger.WarnContext(ctx, "near-miss event publish failed",
				"event_id", ev.ID,
				"error", err,
			)
			continue
		}
		delivered = append(delivered, ev.ID)
	}
	if len(delivered) == 0 {
		return 0, nil
	}

	if err := d.store.MarkDelivered(ctx, delivered, now); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to mark near-miss events delivered")
	}
	if d.metrics != nil {
		d.metrics.AddDelivered(len(delivered))
	}
	d.logger.InfoContext(ctx, "near-miss events delivered", "count", len(delivered))
	return len(delivered), nil
}

// Run dispatches on every tick until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if _, err := d.DispatchDue(ctx); err != nil {
			d.logger.ErrorContext(ctx, "near-miss delivery pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
