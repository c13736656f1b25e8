//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bubble/internal/history"
	historyredis "bubble/internal/history/store/redis"
	id "bubble/pkg/domain"
	"bubble/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *historyredis.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = historyredis.New(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) newRecord(user id.UserID, expires time.Time) *history.Record {
	return &history.Record{
		ID:         id.NewRecordID(),
		UserID:     user,
		KeyRef:     "v1",
		Ciphertext: []byte{0x00, 0xff, 0x10, 0x20},
		InsertedAt: expires.Add(-history.DefaultRetention),
		ExpiresAt:  expires,
	}
}

func (s *RedisStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	now := time.Now()
	user := id.UserID(uuid.New())
	rec := s.newRecord(user, now.Add(time.Hour))
	s.Require().NoError(s.store.Append(ctx, rec))

	recs, err := s.store.ListActive(ctx, user, now)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal(rec.ID, recs[0].ID)
	s.Equal(rec.Ciphertext, recs[0].Ciphertext)
	s.Equal(rec.ExpiresAt.UnixNano(), recs[0].ExpiresAt.UnixNano())

	ttl, err := s.redis.Client.PTTL(ctx, "history:rec:"+rec.ID.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Minute)
}

func (s *RedisStoreSuite) TestVanishedRecordIsTreatedAsExpired() {
	ctx := context.Background()
	now := time.Now()
	user := id.UserID(uuid.New())
	rec := s.newRecord(user, now.Add(time.Hour))
	s.Require().NoError(s.store.Append(ctx, rec))

	// Simulate eviction between index listing and read.
	s.Require().NoError(s.redis.Client.Del(ctx, "history:rec:"+rec.ID.String()).Err())

	recs, err := s.store.ListActive(ctx, user, now)
	s.Require().NoError(err)
	s.Empty(recs)

	card, err := s.redis.Client.ZCard(ctx, "history:user:"+user.String()).Result()
	s.Require().NoError(err)
	s.Zero(card)
}

func (s *RedisStoreSuite) TestMalformedRecordIsFlaggedNotFatal() {
	ctx := context.Background()
	now := time.Now()
	user := id.UserID(uuid.New())
	good := s.newRecord(user, now.Add(time.Hour))
	bad := s.newRecord(user, now.Add(2*time.Hour))
	s.Require().NoError(s.store.Append(ctx, good))
	s.Require().NoError(s.store.Append(ctx, bad))

	s.Require().NoError(s.redis.Client.HSet(ctx, "history:rec:"+bad.ID.String(), "expires_at", "junk").Err())

	recs, err := s.store.ListActive(ctx, user, now)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)

	byID := map[id.RecordID]*history.Record{}
	for _, rec := range recs {
		byID[rec.ID] = rec
	}
	s.False(byID[good.ID].Corrupt)
	s.Require().Contains(byID, bad.ID)
	s.True(byID[bad.ID].Corrupt)
	s.Equal(user, byID[bad.ID].UserID)

	n, err := s.store.DeleteExpired(ctx, now.Add(3*time.Hour))
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *RedisStoreSuite) TestDeleteExpired() {
	ctx := context.Background()
	now := time.Now()
	user := id.UserID(uuid.New())
	s.Require().NoError(s.store.Append(ctx, s.newRecord(user, now.Add(time.Hour))))
	expiring := s.newRecord(user, now.Add(2*time.Second))
	s.Require().NoError(s.store.Append(ctx, expiring))

	later := now.Add(3 * time.Second)
	n, err := s.store.DeleteExpired(ctx, later)
	s.Require().NoError(err)
	s.Equal(1, n)

	recs, err := s.store.ListActive(ctx, user, later)
	s.Require().NoError(err)
	s.Len(recs, 1)

	s.Require().NoError(s.store.Append(ctx, s.newRecord(id.UserID(uuid.New()), now.Add(time.Second))))
	n, err = s.store.DeleteExpired(ctx, now.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Equal(2, n)

	users, err := s.redis.Client.SCard(ctx, "history:users").Result()
	s.Require().NoError(err)
	s.Zero(users)
}
