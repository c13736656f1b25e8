package trust

import (
	"context"
	"errors"

	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
)

// EdgeSource reads the friend trust graph.
type EdgeSource interface {
	ListEdges(ctx context.Context) ([]Edge, error)
	EdgesFor(ctx context.Context, user id.UserID) ([]Edge, error)
}

// Service applies a Gate to an EdgeSource.
type Service struct {
	source EdgeSource
	gate   *Gate
}

// NewService wires a gate to its edge source.
func NewService(source EdgeSource, gate *Gate) (*Service, error) {
	if source == nil {
		return nil, errors.New("trust edge source is required")
	}
	if gate == nil {
		gate = NewGate()
	}
	return &Service{source: source, gate: gate}, nil
}

// EligiblePairs loads the full graph and filters it.
func (s *Service) EligiblePairs(ctx context.Context) ([]Pair, error) {
	edges, err := s.source.ListEdges(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load trust graph")
	}
	return s.gate.EligiblePairs(edges), nil
}

// CloseFriends returns the users eligible for proximity with user.
func (s *Service) CloseFriends(ctx context.Context, user id.UserID) ([]id.UserID, error) {
	edges, err := s.source.EdgesFor(ctx, user)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load trust edges")
	}
	return s.gate.CloseFriends(edges, user), nil
}
