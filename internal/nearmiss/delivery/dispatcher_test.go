package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bubble/internal/nearmiss"
	"bubble/internal/nearmiss/store/memory"
	id "bubble/pkg/domain"
	"bubble/pkg/requestcontext"
)

type fakePublisher struct {
	published []id.EventID
	failFor   map[id.EventID]bool
}

func (p *fakePublisher) PublishNearMiss(_ context.Context, ev nearmiss.Event) error {
	if p.failFor[ev.ID] {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, ev.ID)
	return nil
}

func seed(t *testing.T, store *memory.InMemoryStore, deliverAfter time.Time, n int) []nearmiss.Event {
	t.Helper()
	events := make([]nearmiss.Event, n)
	for i := range events {
		events[i] = nearmiss.Event{
			ID:           id.EventID(uuid.New()),
			RunDate:      "2026-04-10",
			UserA:        id.UserID(uuid.New()),
			UserB:        id.UserID(uuid.New()),
			ApproxTime:   time.Date(2026, 4, 10, 10, i, 0, 0, time.UTC),
			DeliverAfter: deliverAfter,
		}
	}
	require.NoError(t, store.CommitRun(context.Background(), nearmiss.RunSummary{RunDate: "2026-04-10"}, events))
	return events
}

func newDispatcher(t *testing.T, store *memory.InMemoryStore, pub Publisher, opts ...Option) *Dispatcher {
	t.Helper()
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	d, err := New(store, pub, opts...)
	require.NoError(t, err)
	return d
}

func TestDispatchDue(t *testing.T) {
	morning := time.Date(2026, 4, 11, 8, 0, 0, 0, time.UTC)

	t.Run("nothing is sent before the morning", func(t *testing.T) {
		store := memory.New()
		seed(t, store, morning, 2)
		pub := &fakePublisher{}
		d := newDispatcher(t, store, pub)

		n, err := d.DispatchDue(requestcontext.WithTime(context.Background(), morning.Add(-time.Second)))
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, pub.published)
	})

	t.Run("due events are published once", func(t *testing.T) {
		store := memory.New()
		seed(t, store, morning, 3)
		pub := &fakePublisher{}
		d := newDispatcher(t, store, pub)
		ctx := requestcontext.WithTime(context.Background(), morning)

		n, err := d.DispatchDue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		n, err = d.DispatchDue(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Len(t, pub.published, 3)

		stored, err := store.ListByRunDate(context.Background(), "2026-04-10")
		require.NoError(t, err)
		for _, ev := range stored {
			assert.True(t, ev.Delivered)
			require.NotNil(t, ev.DeliveredAt)
			assert.Equal(t, morning, *ev.DeliveredAt)
		}
	})

	t.Run("rejected events stay due", func(t *testing.T) {
		store := memory.New()
		events := seed(t, store, morning, 2)
		pub := &fakePublisher{failFor: map[id.EventID]bool{events[0].ID: true}}
		d := newDispatcher(t, store, pub)
		ctx := requestcontext.WithTime(context.Background(), morning)

		n, err := d.DispatchDue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		due, err := store.ListDue(context.Background(), morning, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, events[0].ID, due[0].ID)
	})

	t.Run("batch size bounds one pass", func(t *testing.T) {
		store := memory.New()
		seed(t, store, morning, 5)
		pub := &fakePublisher{}
		d := newDispatcher(t, store, pub, WithBatchSize(2))

		n, err := d.DispatchDue(requestcontext.WithTime(context.Background(), morning))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(nil, &fakePublisher{})
	assert.Error(t, err)
	_, err = New(memory.New(), nil)
	assert.Error(t, err)
}
