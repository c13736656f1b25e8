//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bubble/internal/history"
	"bubble/internal/history/store/postgres"
	id "bubble/pkg/domain"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "location_records"))
}

func (s *PostgresStoreSuite) newRecord(user id.UserID, expires time.Time) *history.Record {
	return &history.Record{
		ID:         id.NewRecordID(),
		UserID:     user,
		KeyRef:     "v1",
		Ciphertext: []byte{0x01, 0x02, 0x03, 0x04},
		InsertedAt: expires.Add(-history.DefaultRetention),
		ExpiresAt:  expires,
	}
}

func (s *PostgresStoreSuite) TestAppendListDelete() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := id.UserID(uuid.New())

	live := s.newRecord(user, now.Add(time.Hour))
	s.Require().NoError(s.store.Append(ctx, live))
	s.Require().NoError(s.store.Append(ctx, s.newRecord(user, now.Add(-time.Minute))))
	s.Require().NoError(s.store.Append(ctx, s.newRecord(id.UserID(uuid.New()), now)))

	recs, err := s.store.ListActive(ctx, user, now)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal(live.ID, recs[0].ID)
	s.Equal(live.Ciphertext, recs[0].Ciphertext)
	s.True(live.ExpiresAt.Equal(recs[0].ExpiresAt))

	n, err := s.store.DeleteExpired(ctx, now)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.store.DeleteExpired(ctx, now)
	s.Require().NoError(err)
	s.Zero(n)
}
