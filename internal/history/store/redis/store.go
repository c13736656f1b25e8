package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bubble/internal/history"
	id "bubble/pkg/domain"
)

const (
	recordKeyPrefix = "history:rec:"
	userIndexPrefix = "history:user:"
	usersKey        = "history:users"
)

// RedisStore keeps each record under its own key with PEXPIREAT, plus a
// per-user sorted set of record ids scored by expiry. Redis may evict a record
// key before the sweep reaches its index entry; such entries are treated as
// already expired.
type RedisStore struct {
	client *redis.Client
}

// New constructs a Redis-backed history store.
func New(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(recID string) string { return recordKeyPrefix + recID }

func userIndexKey(userID id.UserID) string { return userIndexPrefix + userID.String() }

func (s *RedisStore) Append(ctx context.Context, rec *history.Record) error {
	key := recordKey(rec.ID.String())
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"user_id", rec.UserID.String(),
			"key_ref", rec.KeyRef,
			"ciphertext", rec.Ciphertext,
			"inserted_at", rec.InsertedAt.UnixNano(),
			"expires_at", rec.ExpiresAt.UnixNano(),
		)
		pipe.PExpireAt(ctx, key, rec.ExpiresAt)
		pipe.ZAdd(ctx, userIndexKey(rec.UserID), redis.Z{
			Score:  float64(rec.ExpiresAt.UnixMilli()),
			Member: rec.ID.String(),
		})
		pipe.SAdd(ctx, usersKey, rec.UserID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("append location record: %w", err)
	}
	return nil
}

func (s *RedisStore) ListActive(ctx context.Context, userID id.UserID, now time.Time) ([]*history.Record, error) {
	indexKey := userIndexKey(userID)
	ids, err := s.client.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(now.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list location index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, recID := range ids {
		cmds[i] = pipe.HGetAll(ctx, recordKey(recID))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load location records: %w", err)
	}

	var (
		records  []*history.Record
		vanished []any
	)
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			vanished = append(vanished, ids[i])
			continue
		}
		rec, err := decodeRecord(ids[i], fields)
		if err != nil {
			// The index entry still expires on schedule, so the sweep removes it.
			records = append(records, corruptRecord(ids[i], userID))
			continue
		}
		if rec.IsExpired(now) {
			continue
		}
		records = append(records, rec)
	}
	if len(vanished) > 0 {
		if err := s.client.ZRem(ctx, indexKey, vanished...).Err(); err != nil {
			return nil, fmt.Errorf("prune vanished location index entries: %w", err)
		}
	}
	return records, nil
}

func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	users, err := s.client.SMembers(ctx, usersKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list history users: %w", err)
	}

	cutoff := strconv.FormatInt(now.UnixMilli(), 10)
	removed := 0
	for _, user := range users {
		indexKey := userIndexPrefix + user
		ids, err := s.client.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{Min: "-inf", Max: cutoff}).Result()
		if err != nil {
			return removed, fmt.Errorf("list expired location index: %w", err)
		}

		pipe := s.client.TxPipeline()
		for _, recID := range ids {
			pipe.Del(ctx, recordKey(recID))
		}
		pipe.ZRemRangeByScore(ctx, indexKey, "-inf", cutoff)
		card := pipe.ZCard(ctx, indexKey)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("delete expired location records: %w", err)
		}
		removed += len(ids)

		if card.Val() == 0 {
			if err := s.client.SRem(ctx, usersKey, user).Err(); err != nil {
				return removed, fmt.Errorf("drop empty history user: %w", err)
			}
		}
	}
	return removed, nil
}

func corruptRecord(recID string, owner id.UserID) *history.Record {
	rec := &history.Record{UserID: owner, Corrupt: true}
	if rid, err := uuid.Parse(recID); err == nil {
		rec.ID = id.RecordID(rid)
	}
	return rec
}

func decodeRecord(recID string, fields map[string]string) (*history.Record, error) {
	rid, err := uuid.Parse(recID)
	if err != nil {
		return nil, fmt.Errorf("parse record id: %w", err)
	}
	owner, err := uuid.Parse(fields["user_id"])
	if err != nil {
		return nil, fmt.Errorf("parse record owner: %w", err)
	}
	inserted, err := strconv.ParseInt(fields["inserted_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse inserted_at: %w", err)
	}
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	return &history.Record{
		ID:         id.RecordID(rid),
		UserID:     id.UserID(owner),
		KeyRef:     fields["key_ref"],
		Ciphertext: []byte(fields["ciphertext"]),
		InsertedAt: time.Unix(0, inserted).UTC(),
		ExpiresAt:  time.Unix(0, expires).UTC(),
	}, nil
}
