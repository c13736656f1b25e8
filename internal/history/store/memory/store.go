package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"bubble/internal/history"
	id "bubble/pkg/domain"
)

// InMemoryStore keeps sealed records per user behind a single RWMutex:
// appends are serialized across all users, reads run concurrently.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.UserID][]*history.Record
}

func New() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.UserID][]*history.Record)}
}

func (s *InMemoryStore) Append(_ context.Context, rec *history.Record) error {
	cp := *rec
	cp.Ciphertext = slices.Clone(rec.Ciphertext)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.UserID] = append(s.records[rec.UserID], &cp)
	return nil
}

func (s *InMemoryStore) ListActive(_ context.Context, userID id.UserID, now time.Time) ([]*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*history.Record
	for _, rec := range s.records[userID] {
		if rec.IsExpired(now) {
			continue
		}
		cp := *rec
		cp.Ciphertext = slices.Clone(rec.Ciphertext)
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, recs := range s.records {
		kept := recs[:0]
		for _, rec := range recs {
			if rec.IsExpired(now) {
				clear(rec.Ciphertext)
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		clear(recs[len(kept):])
		if len(kept) == 0 {
			delete(s.records, userID)
			continue
		}
		s.records[userID] = kept
	}
	return removed, nil
}

// Count returns the number of stored records, expired or not.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}
