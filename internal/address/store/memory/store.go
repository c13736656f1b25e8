package memory

import (
	"context"
	"slices"
	"sync"

	"bubble/internal/address"
	id "bubble/pkg/domain"
	"bubble/pkg/platform/sentinel"
)

// InMemoryStore keeps immutable address snapshots in sync.Maps. Readers never
// block; writers swap snapshots with CompareAndSwap so a stale version loses.
type InMemoryStore struct {
	addresses sync.Map // id.AddressID -> *address.Address
	byOwner   sync.Map // id.UserID -> *ownerIndex

	mu       sync.RWMutex
	requests map[id.ChangeRequestID]*address.ChangeRequest
	pending  map[id.AddressID]id.ChangeRequestID
}

type ownerIndex struct {
	ids []id.AddressID
}

func New() *InMemoryStore {
	return &InMemoryStore{
		requests: make(map[id.ChangeRequestID]*address.ChangeRequest),
		pending:  make(map[id.AddressID]id.ChangeRequestID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, addr *address.Address) error {
	snap := addr.Clone()
	if _, loaded := s.addresses.LoadOrStore(snap.ID, snap); loaded {
		return sentinel.ErrConflict
	}
	for {
		cur, loaded := s.byOwner.Load(snap.OwnerID)
		var ids []id.AddressID
		if loaded {
			ids = cur.(*ownerIndex).ids
		}
		if snap.Kind.Singular() && s.hasCurrent(ids, snap) {
			s.addresses.Delete(snap.ID)
			return sentinel.ErrConflict
		}
		next := &ownerIndex{ids: append(slices.Clone(ids), snap.ID)}
		if !loaded {
			if _, raced := s.byOwner.LoadOrStore(snap.OwnerID, next); !raced {
				return nil
			}
			continue
		}
		if s.byOwner.CompareAndSwap(snap.OwnerID, cur, next) {
			return nil
		}
	}
}

func (s *InMemoryStore) hasCurrent(ids []id.AddressID, candidate *address.Address) bool {
	for _, addrID := range ids {
		if v, ok := s.addresses.Load(addrID); ok {
			existing := v.(*address.Address)
			if existing.Kind == candidate.Kind && existing.IsCurrent() {
				return true
			}
		}
	}
	return false
}

func (s *InMemoryStore) FindByID(_ context.Context, addressID id.AddressID) (*address.Address, error) {
	v, ok := s.addresses.Load(addressID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return v.(*address.Address).Clone(), nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.UserID) ([]*address.Address, error) {
	v, ok := s.byOwner.Load(owner)
	if !ok {
		return nil, nil
	}
	ids := v.(*ownerIndex).ids
	out := make([]*address.Address, 0, len(ids))
	for _, addrID := range ids {
		if a, ok := s.addresses.Load(addrID); ok {
			out = append(out, a.(*address.Address).Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, addr *address.Address, expectedVersion int64, entry address.AuditEntry) error {
	cur, ok := s.addresses.Load(addr.ID)
	if !ok {
		return sentinel.ErrNotFound
	}
	stored := cur.(*address.Address)
	if stored.Version != expectedVersion {
		return sentinel.ErrConflict
	}

	next := addr.Clone()
	next.Version = expectedVersion + 1
	next.Audit = append(slices.Clone(stored.Audit), entry)
	if !s.addresses.CompareAndSwap(addr.ID, cur, next) {
		return sentinel.ErrConflict
	}
	addr.Version = next.Version
	addr.Audit = slices.Clone(next.Audit)
	return nil
}

func (s *InMemoryStore) CreateChangeRequest(_ context.Context, req *address.ChangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pending[req.AddressID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = req.Clone()
	s.pending[req.AddressID] = req.ID
	return nil
}

func (s *InMemoryStore) FindChangeRequest(_ context.Context, requestID id.ChangeRequestID) (*address.ChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return req.Clone(), nil
}

func (s *InMemoryStore) UpdateChangeRequest(_ context.Context, req *address.ChangeRequest, expectedStatus address.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[req.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Status != expectedStatus {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = req.Clone()
	if req.Status != address.RequestPending {
		delete(s.pending, req.AddressID)
	}
	return nil
}

func (s *InMemoryStore) ListPendingRequests(_ context.Context) ([]*address.ChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*address.ChangeRequest, 0, len(s.pending))
	for _, reqID := range s.pending {
		out = append(out, s.requests[reqID].Clone())
	}
	slices.SortFunc(out, func(a, b *address.ChangeRequest) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) RestoreAddress(_ context.Context, addressID id.AddressID, prev *address.Address) error {
	if prev != nil {
		s.addresses.Store(addressID, prev.Clone())
		return nil
	}
	cur, loaded := s.addresses.LoadAndDelete(addressID)
	if !loaded {
		return nil
	}
	owner := cur.(*address.Address).OwnerID
	for {
		v, ok := s.byOwner.Load(owner)
		if !ok {
			return nil
		}
		ids := v.(*ownerIndex).ids
		next := &ownerIndex{ids: slices.DeleteFunc(slices.Clone(ids), func(a id.AddressID) bool { return a == addressID })}
		if s.byOwner.CompareAndSwap(owner, v, next) {
			return nil
		}
	}
}

func (s *InMemoryStore) RestoreChangeRequest(_ context.Context, requestID id.ChangeRequestID, prev *address.ChangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.requests[requestID]; ok && s.pending[cur.AddressID] == requestID {
		delete(s.pending, cur.AddressID)
	}
	if prev == nil {
		delete(s.requests, requestID)
		return nil
	}
	s.requests[requestID] = prev.Clone()
	if prev.Status == address.RequestPending {
		s.pending[prev.AddressID] = requestID
	}
	return nil
}
