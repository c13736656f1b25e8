package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "bubble/pkg/domain"
	audit "bubble/pkg/platform/audit"
	txcontext "bubble/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. When the context
// carries a transaction the insert joins it, so an address mutation and its
// audit record commit or roll back together.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an audit event. The table has no UPDATE or DELETE path.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, user_id, subject, action, reason, request_id, actor_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		string(event.Category),
		event.Timestamp,
		uuid.UUID(event.UserID),
		event.Subject,
		event.Action,
		event.Reason,
		event.RequestID,
		event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByUser returns events for a specific user, newest first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, user_id, subject, action, reason, request_id, actor_id
		FROM audit_events
		WHERE user_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			category string
			userUUID uuid.UUID
			event    audit.Event
		)
		if err := rows.Scan(
			&category,
			&event.Timestamp,
			&userUUID,
			&event.Subject,
			&event.Action,
			&event.Reason,
			&event.RequestID,
			&event.ActorID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.UserID = id.UserID(userUUID)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
