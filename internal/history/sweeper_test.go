package history_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bubble/internal/history"
	"bubble/internal/history/sealer"
	"bubble/internal/history/store/memory"
	id "bubble/pkg/domain"
)

func TestSweeperPurgesUntilCancelled(t *testing.T) {
	ring, err := sealer.NewKeyring("v1", map[string][]byte{"v1": bytes.Repeat([]byte{3}, sealer.KeySize)})
	require.NoError(t, err)
	store := memory.New()
	svc, err := history.New(store, sealer.New(ring))
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, store.Append(context.Background(), &history.Record{
		ID:         id.NewRecordID(),
		UserID:     id.UserID(uuid.New()),
		KeyRef:     "v1",
		Ciphertext: []byte("x"),
		InsertedAt: past.Add(-history.DefaultRetention),
		ExpiresAt:  past,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	sweeper := history.NewSweeper(svc, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	go func() { done <- sweeper.Run(ctx) }()

	assert.Eventually(t, func() bool { return store.Count() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
