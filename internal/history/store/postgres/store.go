package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bubble/internal/history"
	id "bubble/pkg/domain"
)

// PostgresStore persists sealed location records in PostgreSQL.
// The table only ever sees ciphertext.
type PostgresStore struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed history store.
func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, rec *history.Record) error {
	query := `
		INSERT INTO location_records (id, user_id, key_ref, ciphertext, inserted_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		uuid.UUID(rec.UserID),
		rec.KeyRef,
		rec.Ciphertext,
		rec.InsertedAt,
		rec.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert location record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context, userID id.UserID, now time.Time) ([]*history.Record, error) {
	query := `
		SELECT id, user_id, key_ref, ciphertext, inserted_at, expires_at
		FROM location_records
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY inserted_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID), now)
	if err != nil {
		return nil, fmt.Errorf("list location records: %w", err)
	}
	defer rows.Close()

	var records []*history.Record
	for rows.Next() {
		var (
			recID, owner uuid.UUID
			rec          history.Record
		)
		if err := rows.Scan(&recID, &owner, &rec.KeyRef, &rec.Ciphertext, &rec.InsertedAt, &rec.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan location record: %w", err)
		}
		rec.ID = id.RecordID(recID)
		rec.UserID = id.UserID(owner)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate location records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM location_records WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired location records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired rows affected: %w", err)
	}
	return int(n), nil
}
