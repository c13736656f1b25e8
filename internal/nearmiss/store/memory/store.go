package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"bubble/internal/nearmiss"
	id "bubble/pkg/domain"
	"bubble/pkg/platform/sentinel"
)

// InMemoryStore is the near-miss event log for single-process deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.EventID]nearmiss.Event
	runs   map[string]nearmiss.RunSummary
}

func New() *InMemoryStore {
	return &InMemoryStore{
		events: make(map[id.EventID]nearmiss.Event),
		runs:   make(map[string]nearmiss.RunSummary),
	}
}

func (s *InMemoryStore) CommitRun(_ context.Context, run nearmiss.RunSummary, events []nearmiss.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		if _, exists := s.events[ev.ID]; exists {
			continue
		}
		s.events[ev.ID] = ev
	}
	s.runs[run.RunDate] = run
	return nil
}

func (s *InMemoryStore) FindRun(_ context.Context, runDate string) (*nearmiss.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runDate]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &run, nil
}

func (s *InMemoryStore) ListByRunDate(_ context.Context, runDate string) ([]nearmiss.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []nearmiss.Event
	for _, ev := range s.events {
		if ev.RunDate == runDate {
			out = append(out, ev)
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *InMemoryStore) ListDue(_ context.Context, now time.Time, limit int) ([]nearmiss.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []nearmiss.Event
	for _, ev := range s.events {
		if !ev.Delivered && !ev.DeliverAfter.After(now) {
			out = append(out, ev)
		}
	}
	sortEvents(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) MarkDelivered(_ context.Context, ids []id.EventID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, eventID := range ids {
		ev, ok := s.events[eventID]
		if !ok || ev.Delivered {
			continue
		}
		ev.Delivered = true
		deliveredAt := at
		ev.DeliveredAt = &deliveredAt
		s.events[eventID] = ev
	}
	return nil
}

func sortEvents(events []nearmiss.Event) {
	slices.SortFunc(events, func(a, b nearmiss.Event) int {
		if c := a.DeliverAfter.Compare(b.DeliverAfter); c != 0 {
			return c
		}
		if c := a.ApproxTime.Compare(b.ApproxTime); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
}
