package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bubble/pkg/domain"
	audit "bubble/pkg/platform/audit"
	"bubble/pkg/platform/audit/store/memory"
	"bubble/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("disk full")
}

func (failingStore) ListByUser(context.Context, id.UserID) ([]audit.Event, error) {
	return nil, nil
}

func TestPublisher_Emit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)
	userID := id.UserID(uuid.New())
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	err := pub.Emit(ctx, audit.Event{
		UserID:  userID,
		Subject: "addr-1",
		Action:  string(audit.EventAddressRegistered),
	})
	require.NoError(t, err)

	events, err := store.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.Equal(t, now, events[0].Timestamp)
	assert.Equal(t, "req-1", events[0].RequestID)
}

func TestPublisher_RejectsIncompleteEvents(t *testing.T) {
	pub := New(memory.NewInMemoryStore())

	t.Run("missing user", func(t *testing.T) {
		err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventAddressChanged)})
		assert.Error(t, err)
	})

	t.Run("missing action", func(t *testing.T) {
		err := pub.Emit(context.Background(), audit.Event{UserID: id.UserID(uuid.New())})
		assert.Error(t, err)
	})
}

func TestPublisher_FailsClosed(t *testing.T) {
	pub := New(failingStore{})

	err := pub.Emit(context.Background(), audit.Event{
		UserID: id.UserID(uuid.New()),
		Action: string(audit.EventAddressChanged),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
