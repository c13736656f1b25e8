//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bubble/internal/nearmiss"
	"bubble/internal/nearmiss/store/postgres"
	id "bubble/pkg/domain"
	"bubble/pkg/platform/sentinel"
	"bubble/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "nearmiss_events", "nearmiss_runs"))
}

func (s *PostgresStoreSuite) event(deliverAfter time.Time) nearmiss.Event {
	return nearmiss.Event{
		ID:               id.EventID(uuid.New()),
		RunDate:          "2026-04-10",
		UserA:            id.UserID(uuid.New()),
		UserB:            id.UserID(uuid.New()),
		ApproxTime:       time.Date(2026, 4, 10, 10, 15, 0, 0, time.UTC),
		DistanceMeters:   48,
		TimeDeltaMinutes: 15,
		DetectedAt:       time.Date(2026, 4, 11, 3, 0, 0, 0, time.UTC),
		DeliverAfter:     deliverAfter,
	}
}

func (s *PostgresStoreSuite) TestCommitRunIsIdempotent() {
	ctx := context.Background()
	morning := time.Date(2026, 4, 11, 8, 0, 0, 0, time.UTC)
	ev := s.event(morning)
	run := nearmiss.RunSummary{RunDate: "2026-04-10", CommittedAt: morning.Add(-5 * time.Hour), Pairs: 3, Events: 1}

	s.Require().NoError(s.store.CommitRun(ctx, run, []nearmiss.Event{ev}))
	s.Require().NoError(s.store.MarkDelivered(ctx, []id.EventID{ev.ID}, morning))

	run.Pairs = 4
	s.Require().NoError(s.store.CommitRun(ctx, run, []nearmiss.Event{ev}))

	events, err := s.store.ListByRunDate(ctx, "2026-04-10")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.True(events[0].Delivered)
	s.Require().NotNil(events[0].DeliveredAt)
	s.True(morning.Equal(*events[0].DeliveredAt))
	s.Equal(48, events[0].DistanceMeters)

	stored, err := s.store.FindRun(ctx, "2026-04-10")
	s.Require().NoError(err)
	s.Equal(4, stored.Pairs)
	s.Equal("2026-04-10", stored.RunDate)

	_, err = s.store.FindRun(ctx, "2026-04-09")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListDueAndMarkDelivered() {
	ctx := context.Background()
	morning := time.Date(2026, 4, 11, 8, 0, 0, 0, time.UTC)
	first, second := s.event(morning), s.event(morning)
	later := s.event(morning.Add(24 * time.Hour))
	s.Require().NoError(s.store.CommitRun(ctx, nearmiss.RunSummary{RunDate: "2026-04-10", CommittedAt: morning},
		[]nearmiss.Event{first, second, later}))

	due, err := s.store.ListDue(ctx, morning, 10)
	s.Require().NoError(err)
	s.Len(due, 2)

	s.Require().NoError(s.store.MarkDelivered(ctx, []id.EventID{first.ID, second.ID}, morning))
	due, err = s.store.ListDue(ctx, morning.Add(48*time.Hour), 10)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(later.ID, due[0].ID)
}
