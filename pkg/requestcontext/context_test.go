package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	t.Run("pinned time is returned", func(t *testing.T) {
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		ctx := WithTime(context.Background(), fixed)
		assert.Equal(t, fixed, Now(ctx))
	})

	t.Run("falls back to wall clock", func(t *testing.T) {
		before := time.Now()
		got := Now(context.Background())
		assert.False(t, got.Before(before))
	})
}

func TestActorAndRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ActorID(ctx))
	assert.Empty(t, RequestID(ctx))

	ctx = WithActorID(ctx, "reviewer-1")
	ctx = WithRequestID(ctx, "req-9")
	assert.Equal(t, "reviewer-1", ActorID(ctx))
	assert.Equal(t, "req-9", RequestID(ctx))
}
