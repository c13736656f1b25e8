package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bubble/internal/address"
	"bubble/internal/geofence"
	"bubble/internal/location"
	"bubble/internal/platform/config"
	id "bubble/pkg/domain"
	"bubble/pkg/requestcontext"
)

func TestBuildInMemory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := Build(context.Background(), config.DefaultConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	now := time.Date(2026, 4, 9, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	user := id.UserID(uuid.New())

	t.Run("report classifies against the registry", func(t *testing.T) {
		_, err := a.Addresses.Register(ctx, address.RegisterRequest{
			OwnerID: user, Kind: geofence.KindWork, Latitude: 35.68, Longitude: 139.76,
		})
		require.NoError(t, err)

		status, err := a.Location.Report(ctx, location.Sample{
			UserID:   user,
			Position: geofence.Position{Latitude: 35.6805, Longitude: 139.76, Timestamp: now},
		})
		require.NoError(t, err)
		assert.Equal(t, geofence.StatusWork, status.Type)
	})

	t.Run("a run with no eligible pairs still commits", func(t *testing.T) {
		events, err := a.NearMiss.Run(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, events)

		summary, err := a.RunFinder.FindRun(ctx, "2026-04-09")
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Events)
	})

	assert.NoError(t, a.Health(ctx))
}

func TestKeyring(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("persistent history requires configured keys", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.History.Backend = config.BackendRedis
		a := &App{Config: cfg, logger: logger}
		_, err := a.keyring()
		assert.Error(t, err)
	})

	t.Run("configured keys are parsed", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.History.ActiveKeyRef = "v2"
		cfg.History.MasterKeys = []string{
			"v1:AQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQE=",
			"v2:AgICAgICAgICAgICAgICAgICAgICAgICAgICAgICAgI=",
		}
		a := &App{Config: cfg, logger: logger}
		ring, err := a.keyring()
		require.NoError(t, err)
		assert.Equal(t, "v2", ring.Active())
	})
}
