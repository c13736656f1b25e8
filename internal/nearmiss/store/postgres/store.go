package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bubble/internal/nearmiss"
	id "bubble/pkg/domain"
	"bubble/pkg/platform/sentinel"
	txcontext "bubble/pkg/platform/tx"
)

// PostgresStore is the near-miss event log on nearmiss_events and
// nearmiss_runs.
type PostgresStore struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed event store.
func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CommitRun inserts the run's events and upserts its summary in one
// transaction. Existing event ids are left untouched.
func (s *PostgresStore) CommitRun(ctx context.Context, run nearmiss.RunSummary, events []nearmiss.Event) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		exec := txcontext.Exec(ctx, s.db)
		query := `
			INSERT INTO nearmiss_events (
				id, run_date, user_a, user_b, approx_time, distance_meters, time_delta_minutes,
				detected_at, deliver_after, delivered
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
			ON CONFLICT (id) DO NOTHING
		`
		for _, ev := range events {
			_, err := exec.ExecContext(ctx, query,
				uuid.UUID(ev.ID),
				ev.RunDate,
				uuid.UUID(ev.UserA),
				uuid.UUID(ev.UserB),
				ev.ApproxTime,
				ev.DistanceMeters,
				ev.TimeDeltaMinutes,
				ev.DetectedAt,
				ev.DeliverAfter,
			)
			if err != nil {
				return fmt.Errorf("insert near-miss event: %w", err)
			}
		}

		runQuery := `
			INSERT INTO nearmiss_runs (run_date, committed_at, pairs, events, corrupt)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (run_date) DO UPDATE
			SET committed_at = EXCLUDED.committed_at, pairs = EXCLUDED.pairs,
				events = EXCLUDED.events, corrupt = EXCLUDED.corrupt
		`
		if _, err := exec.ExecContext(ctx, runQuery,
			run.RunDate, run.CommittedAt, run.Pairs, run.Events, run.Corrupt,
		); err != nil {
			return fmt.Errorf("upsert near-miss run: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) FindRun(ctx context.Context, runDate string) (*nearmiss.RunSummary, error) {
	query := `
		SELECT run_date::text, committed_at, pairs, events, corrupt
		FROM nearmiss_runs
		WHERE run_date = $1
	`
	var run nearmiss.RunSummary
	err := s.db.QueryRowContext(ctx, query, runDate).Scan(
		&run.RunDate, &run.CommittedAt, &run.Pairs, &run.Events, &run.Corrupt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find near-miss run: %w", err)
	}
	return &run, nil
}

const eventColumns = `id, run_date::text, user_a, user_b, approx_time, distance_meters, time_delta_minutes,
	detected_at, deliver_after, delivered, delivered_at`

func (s *PostgresStore) ListByRunDate(ctx context.Context, runDate string) ([]nearmiss.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM nearmiss_events
		WHERE run_date = $1
		ORDER BY deliver_after, approx_time, id
	`
	return s.list(ctx, query, runDate)
}

func (s *PostgresStore) ListDue(ctx context.Context, now time.Time, limit int) ([]nearmiss.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM nearmiss_events
		WHERE NOT delivered AND deliver_after <= $1
		ORDER BY deliver_after, approx_time, id
		LIMIT $2
	`
	if limit <= 0 {
		limit = 1000
	}
	return s.list(ctx, query, now, limit)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]nearmiss.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list near-miss events: %w", err)
	}
	defer rows.Close()

	var events []nearmiss.Event
	for rows.Next() {
		var (
			eventID, userA, userB uuid.UUID
			deliveredAt           sql.NullTime
			ev                    nearmiss.Event
		)
		if err := rows.Scan(&eventID, &ev.RunDate, &userA, &userB, &ev.ApproxTime, &ev.DistanceMeters,
			&ev.TimeDeltaMinutes, &ev.DetectedAt, &ev.DeliverAfter, &ev.Delivered, &deliveredAt); err != nil {
			return nil, fmt.Errorf("scan near-miss event: %w", err)
		}
		ev.ID = id.EventID(eventID)
		ev.UserA = id.UserID(userA)
		ev.UserB = id.UserID(userB)
		if deliveredAt.Valid {
			t := deliveredAt.Time
			ev.DeliveredAt = &t
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate near-miss events: %w", err)
	}
	return events, nil
}

// MarkDelivered flags the given events in one statement. Already delivered
// events keep their original delivery time.
func (s *PostgresStore) MarkDelivered(ctx context.Context, ids []id.EventID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, eventID := range ids {
		strIDs[i] = eventID.String()
	}
	query := `
		UPDATE nearmiss_events
		SET delivered = TRUE, delivered_at = $1
		WHERE id = ANY($2::uuid[]) AND NOT delivered
	`
	if _, err := s.db.ExecContext(ctx, query, at, pq.Array(strIDs)); err != nil {
		return fmt.Errorf("mark near-miss events delivered: %w", err)
	}
	return nil
}
