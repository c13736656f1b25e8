package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bubble/internal/trust"
	id "bubble/pkg/domain"
)

// PostgresStore reads and writes trust edges.
type PostgresStore struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed trust edge store.
func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put inserts or updates the edge.
func (s *PostgresStore) Put(ctx context.Context, edge trust.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO trust_edges (user_a, user_b, trust_level, established_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_a, user_b) DO UPDATE SET
			trust_level = EXCLUDED.trust_level,
			established_at = EXCLUDED.established_at
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(edge.UserA),
		uuid.UUID(edge.UserB),
		edge.Level,
		edge.EstablishedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert trust edge: %w", err)
	}
	return nil
}

// Remove deletes the edge if present.
func (s *PostgresStore) Remove(ctx context.Context, userA, userB id.UserID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM trust_edges WHERE user_a = $1 AND user_b = $2`,
		uuid.UUID(userA), uuid.UUID(userB),
	)
	if err != nil {
		return fmt.Errorf("delete trust edge: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListEdges(ctx context.Context) ([]trust.Edge, error) {
	return s.query(ctx, `
		SELECT user_a, user_b, trust_level, established_at
		FROM trust_edges
	`)
}

func (s *PostgresStore) EdgesFor(ctx context.Context, user id.UserID) ([]trust.Edge, error) {
	return s.query(ctx, `
		SELECT user_a, user_b, trust_level, established_at
		FROM trust_edges
		WHERE user_a = $1 OR user_b = $1
	`, uuid.UUID(user))
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]trust.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trust edges: %w", err)
	}
	defer rows.Close()

	var edges []trust.Edge
	for rows.Next() {
		var (
			a, b uuid.UUID
			edge trust.Edge
		)
		if err := rows.Scan(&a, &b, &edge.Level, &edge.EstablishedAt); err != nil {
			return nil, fmt.Errorf("scan trust edge: %w", err)
		}
		edge.UserA = id.UserID(a)
		edge.UserB = id.UserID(b)
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trust edges: %w", err)
	}
	return edges, nil
}
