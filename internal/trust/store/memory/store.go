package memory

import (
	"context"
	"sync"

	"bubble/internal/trust"
	id "bubble/pkg/domain"
)

type edgeKey struct {
	a, b id.UserID
}

// InMemoryStore holds directed trust edges keyed by (rater, rated).
type InMemoryStore struct {
	mu    sync.RWMutex
	edges map[edgeKey]trust.Edge
}

func New() *InMemoryStore {
	return &InMemoryStore{edges: make(map[edgeKey]trust.Edge)}
}

// Put inserts or replaces the edge.
func (s *InMemoryStore) Put(_ context.Context, edge trust.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[edgeKey{edge.UserA, edge.UserB}] = edge
	return nil
}

// Remove deletes the edge if present.
func (s *InMemoryStore) Remove(_ context.Context, userA, userB id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, edgeKey{userA, userB})
	return nil
}

func (s *InMemoryStore) ListEdges(_ context.Context) ([]trust.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trust.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	return out, nil
}

func (s *InMemoryStore) EdgesFor(_ context.Context, user id.UserID) ([]trust.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []trust.Edge
	for k, e := range s.edges {
		if k.a == user || k.b == user {
			out = append(out, e)
		}
	}
	return out, nil
}
