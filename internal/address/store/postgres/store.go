package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bubble/internal/address"
	"bubble/internal/geofence"
	platformpg "bubble/internal/platform/postgres"
	id "bubble/pkg/domain"
	"bubble/pkg/platform/sentinel"
	txcontext "bubble/pkg/platform/tx"
)

// PostgresStore persists addresses, their audit entries and change requests.
// The audit entry for version n has seq n, so a version bump and its entry
// land together or not at all.
type PostgresStore struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed address store.
func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Tx runs registry units of work in a database transaction carried by ctx.
type Tx struct {
	db    *sql.DB
	store *PostgresStore
}

func NewTx(db *sql.DB, store *PostgresStore) *Tx {
	return &Tx{db: db, store: store}
}

func (t *Tx) RunInTx(ctx context.Context, _ id.UserID, fn func(ctx context.Context, store address.Store) error) error {
	return txcontext.Run(ctx, t.db, func(txCtx context.Context) error {
		return fn(txCtx, t.store)
	})
}

const addressColumns = `id, owner_id, kind, name, latitude, longitude, radius_meters,
	registered_at, change_lock_until, status, version`

func (s *PostgresStore) Create(ctx context.Context, addr *address.Address) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		query := `
			INSERT INTO addresses (` + addressColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
			uuid.UUID(addr.ID),
			uuid.UUID(addr.OwnerID),
			string(addr.Kind),
			addr.Name,
			addr.Latitude,
			addr.Longitude,
			addr.RadiusMeters,
			addr.RegisteredAt,
			addr.ChangeLockUntil,
			string(addr.Status),
			addr.Version,
		)
		if err != nil {
			if platformpg.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert address: %w", err)
		}
		for i, entry := range addr.Audit {
			if err := s.insertEntry(ctx, addr.ID, i+1, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) insertEntry(ctx context.Context, addressID id.AddressID, seq int, entry address.AuditEntry) error {
	query := `
		INSERT INTO address_audit_entries (
			address_id, seq, at, actor, action, reason, prev_latitude, prev_longitude, prev_radius
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(addressID),
		seq,
		entry.At,
		entry.Actor,
		string(entry.Action),
		entry.Reason,
		entry.PrevLatitude,
		entry.PrevLongitude,
		entry.PrevRadius,
	)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert address audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, addressID id.AddressID) (*address.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`
	addr, err := scanAddress(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(addressID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find address: %w", err)
	}
	if err := s.loadTrails(ctx, []*address.Address{addr}); err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.UserID) ([]*address.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE owner_id = $1 ORDER BY registered_at, id`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(owner))
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addrs []*address.Address
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addrs = append(addrs, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addresses: %w", err)
	}
	if err := s.loadTrails(ctx, addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

// loadTrails fills Audit for every address with a single query.
func (s *PostgresStore) loadTrails(ctx context.Context, addrs []*address.Address) error {
	if len(addrs) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*address.Address, len(addrs))
	ids := make([]string, 0, len(addrs))
	for _, a := range addrs {
		byID[uuid.UUID(a.ID)] = a
		ids = append(ids, a.ID.String())
	}

	query := `
		SELECT address_id, at, actor, action, reason, prev_latitude, prev_longitude, prev_radius
		FROM address_audit_entries
		WHERE address_id = ANY($1::uuid[])
		ORDER BY address_id, seq
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list address audit entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			addressID uuid.UUID
			entry     address.AuditEntry
			action    string
		)
		if err := rows.Scan(&addressID, &entry.At, &entry.Actor, &action, &entry.Reason,
			&entry.PrevLatitude, &entry.PrevLongitude, &entry.PrevRadius); err != nil {
			return fmt.Errorf("scan address audit entry: %w", err)
		}
		entry.Action = address.AuditAction(action)
		if a, ok := byID[addressID]; ok {
			a.Audit = append(a.Audit, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate address audit entries: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, addr *address.Address, expectedVersion int64, entry address.AuditEntry) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		query := `
			UPDATE addresses
			SET name = $2, latitude = $3, longitude = $4, radius_meters = $5,
				change_lock_until = $6, status = $7, version = version + 1
			WHERE id = $1 AND version = $8
		`
		result, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
			uuid.UUID(addr.ID),
			addr.Name,
			addr.Latitude,
			addr.Longitude,
			addr.RadiusMeters,
			addr.ChangeLockUntil,
			string(addr.Status),
			expectedVersion,
		)
		if err != nil {
			if platformpg.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("update address: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update address rows affected: %w", err)
		}
		if n == 0 {
			var exists bool
			err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1)`, uuid.UUID(addr.ID)).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check address exists: %w", err)
			}
			if !exists {
				return sentinel.ErrNotFound
			}
			return sentinel.ErrConflict
		}

		next := expectedVersion + 1
		if err := s.insertEntry(ctx, addr.ID, int(next), entry); err != nil {
			return err
		}
		addr.Version = next
		addr.Audit = append(addr.Audit, entry)
		return nil
	})
}

const requestColumns = `id, address_id, owner_id, new_latitude, new_longitude, reason, description,
	document_ref, status, created_at, reviewed_at, reviewer_id, reviewer_comment`

func (s *PostgresStore) CreateChangeRequest(ctx context.Context, req *address.ChangeRequest) error {
	query := `
		INSERT INTO address_change_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(req.ID),
		uuid.UUID(req.AddressID),
		uuid.UUID(req.OwnerID),
		req.NewLatitude,
		req.NewLongitude,
		string(req.Reason),
		req.Description,
		req.DocumentRef,
		string(req.Status),
		req.CreatedAt,
		req.ReviewedAt,
		req.ReviewerID,
		req.ReviewerComment,
	)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert change request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindChangeRequest(ctx context.Context, requestID id.ChangeRequestID) (*address.ChangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM address_change_requests WHERE id = $1`
	req, err := scanRequest(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find change request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) UpdateChangeRequest(ctx context.Context, req *address.ChangeRequest, expectedStatus address.RequestStatus) error {
	query := `
		UPDATE address_change_requests
		SET status = $2, reviewed_at = $3, reviewer_id = $4, reviewer_comment = $5
		WHERE id = $1 AND status = $6
	`
	result, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(req.ID),
		string(req.Status),
		req.ReviewedAt,
		req.ReviewerID,
		req.ReviewerComment,
		string(expectedStatus),
	)
	if err != nil {
		return fmt.Errorf("update change request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update change request rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.FindChangeRequest(ctx, req.ID); err != nil {
			return err
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) ListPendingRequests(ctx context.Context) ([]*address.ChangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM address_change_requests WHERE status = $1 ORDER BY created_at`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, string(address.RequestPending))
	if err != nil {
		return nil, fmt.Errorf("list pending change requests: %w", err)
	}
	defer rows.Close()

	var reqs []*address.ChangeRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan change request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change requests: %w", err)
	}
	return reqs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAddress(row scanner) (*address.Address, error) {
	var (
		addrID, owner uuid.UUID
		kind, status  string
		addr          address.Address
	)
	err := row.Scan(&addrID, &owner, &kind, &addr.Name, &addr.Latitude, &addr.Longitude, &addr.RadiusMeters,
		&addr.RegisteredAt, &addr.ChangeLockUntil, &status, &addr.Version)
	if err != nil {
		return nil, err
	}
	addr.ID = id.AddressID(addrID)
	addr.OwnerID = id.UserID(owner)
	addr.Kind = geofence.Kind(kind)
	addr.Status = address.Status(status)
	return &addr, nil
}

func scanRequest(row scanner) (*address.ChangeRequest, error) {
	var (
		reqID, addrID, owner uuid.UUID
		reason, status       string
		reviewedAt           sql.NullTime
		req                  address.ChangeRequest
	)
	err := row.Scan(&reqID, &addrID, &owner, &req.NewLatitude, &req.NewLongitude, &reason, &req.Description,
		&req.DocumentRef, &status, &req.CreatedAt, &reviewedAt, &req.ReviewerID, &req.ReviewerComment)
	if err != nil {
		return nil, err
	}
	req.ID = id.ChangeRequestID(reqID)
	req.AddressID = id.AddressID(addrID)
	req.OwnerID = id.UserID(owner)
	req.Reason = address.ChangeReason(reason)
	req.Status = address.RequestStatus(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		req.ReviewedAt = &t
	}
	return &req, nil
}
