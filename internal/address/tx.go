package address

import (
	"context"
	"errors"
	"sync"
	"time"

	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
)

// Mutations for one owner are serialized on a shard picked by hashing the
// owner id. Versions still guard against writers outside the unit.
const numOwnerShards = 128

const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numOwnerShards]sync.Mutex
	store   Store
	timeout time.Duration
}

// NewShardedTx serializes units of work per owner in process. Use it with
// the memory store; Postgres deployments pass a database-backed StoreTx.
// When store is a Restorer, writes made by a failed unit are undone.
func NewShardedTx(store Store) StoreTx {
	return &shardedTx{store: store, timeout: defaultTxTimeout}
}

func (t *shardedTx) RunInTx(ctx context.Context, owner id.UserID, fn func(ctx context.Context, store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	shard := hashOwner(owner.String()) % numOwnerShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	restorer, ok := t.store.(Restorer)
	if !ok {
		return fn(ctx, t.store)
	}
	j := &journalStore{Store: t.store, restorer: restorer}
	if err := fn(ctx, j); err != nil {
		if rbErr := j.rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return errors.Join(err, dErrors.Wrap(rbErr, dErrors.CodeInternal, "rollback failed"))
		}
		return err
	}
	return nil
}

// journalStore records how to undo each write made through it. The owner
// shard is held for the whole unit, so the snapshots it takes stay current.
type journalStore struct {
	Store
	restorer Restorer
	undo     []func(ctx context.Context) error
}

func (j *journalStore) Create(ctx context.Context, addr *Address) error {
	if err := j.Store.Create(ctx, addr); err != nil {
		return err
	}
	addrID := addr.ID
	j.undo = append(j.undo, func(ctx context.Context) error {
		return j.restorer.RestoreAddress(ctx, addrID, nil)
	})
	return nil
}

func (j *journalStore) Update(ctx context.Context, addr *Address, expectedVersion int64, entry AuditEntry) error {
	prev, err := j.Store.FindByID(ctx, addr.ID)
	if err != nil {
		return err
	}
	if err := j.Store.Update(ctx, addr, expectedVersion, entry); err != nil {
		return err
	}
	j.undo = append(j.undo, func(ctx context.Context) error {
		return j.restorer.RestoreAddress(ctx, prev.ID, prev)
	})
	return nil
}

func (j *journalStore) CreateChangeRequest(ctx context.Context, req *ChangeRequest) error {
	if err := j.Store.CreateChangeRequest(ctx, req); err != nil {
		return err
	}
	reqID := req.ID
	j.undo = append(j.undo, func(ctx context.Context) error {
		return j.restorer.RestoreChangeRequest(ctx, reqID, nil)
	})
	return nil
}

func (j *journalStore) UpdateChangeRequest(ctx context.Context, req *ChangeRequest, expectedStatus RequestStatus) error {
	prev, err := j.Store.FindChangeRequest(ctx, req.ID)
	if err != nil {
		return err
	}
	if err := j.Store.UpdateChangeRequest(ctx, req, expectedStatus); err != nil {
		return err
	}
	j.undo = append(j.undo, func(ctx context.Context) error {
		return j.restorer.RestoreChangeRequest(ctx, prev.ID, prev)
	})
	return nil
}

// rollback undoes recorded writes newest first and keeps going past
// failures so as much as possible is restored.
func (j *journalStore) rollback(ctx context.Context) error {
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	j.undo = nil
	return errors.Join(errs...)
}

// hashOwner is FNV-1a.
func hashOwner(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
