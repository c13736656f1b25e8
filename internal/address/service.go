package address

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
	"unicode/utf8"

	"bubble/internal/address/metrics"
	"bubble/internal/geofence"
	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
	"bubble/pkg/platform/audit"
	"bubble/pkg/platform/sentinel"
	"bubble/pkg/requestcontext"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
	maxDocumentRefLength = 256
)

// Config holds the registry's policy knobs.
type Config struct {
	ChangeLock         time.Duration
	MinRadiusMeters    float64
	MaxRadiusMeters    float64
	MaxCustomAddresses int
	DefaultRadius      map[geofence.Kind]float64
}

// DefaultConfig returns a 90 day lock, radii within 10..1000 m and up to
// ten custom addresses.
func DefaultConfig() Config {
	return Config{
		ChangeLock:         90 * 24 * time.Hour,
		MinRadiusMeters:    10,
		MaxRadiusMeters:    1000,
		MaxCustomAddresses: 10,
		DefaultRadius: map[geofence.Kind]float64{
			geofence.KindHome:   200,
			geofence.KindWork:   500,
			geofence.KindSchool: 500,
			geofence.KindCustom: 100,
		},
	}
}

// Store persists addresses and change requests. Stores return sentinel
// errors; the service translates them.
type Store interface {
	// Create inserts a new address. ErrConflict when the owner already has a
	// current address of the same singular kind.
	Create(ctx context.Context, addr *Address) error
	FindByID(ctx context.Context, addressID id.AddressID) (*Address, error)
	ListByOwner(ctx context.Context, owner id.UserID) ([]*Address, error)
	// Update persists addr and appends entry to its audit trail when the
	// stored version equals expectedVersion. On success addr.Version and
	// addr.Audit reflect the stored row. ErrConflict on version mismatch.
	Update(ctx context.Context, addr *Address, expectedVersion int64, entry AuditEntry) error

	// CreateChangeRequest fails with ErrConflict when the address already
	// has a pending request.
	CreateChangeRequest(ctx context.Context, req *ChangeRequest) error
	FindChangeRequest(ctx context.Context, requestID id.ChangeRequestID) (*ChangeRequest, error)
	// UpdateChangeRequest persists req when the stored status equals
	// expectedStatus, else ErrConflict.
	UpdateChangeRequest(ctx context.Context, req *ChangeRequest, expectedStatus RequestStatus) error
	ListPendingRequests(ctx context.Context) ([]*ChangeRequest, error)
}

// StoreTx is the unit of work for a registry mutation. The store handed to
// fn, and ctx, must be used for every read and write inside the unit.
type StoreTx interface {
	RunInTx(ctx context.Context, owner id.UserID, fn func(ctx context.Context, store Store) error) error
}

// Restorer puts a row back to an earlier snapshot. A nil snapshot removes
// the row. Stores without transactions implement it so the in-process unit
// of work can undo its writes when a later step fails.
type Restorer interface {
	RestoreAddress(ctx context.Context, addressID id.AddressID, prev *Address) error
	RestoreChangeRequest(ctx context.Context, requestID id.ChangeRequestID, prev *ChangeRequest) error
}

// AuditPublisher records compliance events. A failed Emit fails the
// mutation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// FriendLister resolves the close friends told about an approved change.
type FriendLister interface {
	CloseFriends(ctx context.Context, user id.UserID) ([]id.UserID, error)
}

// AddressChange is what close friends learn when a locked address moves.
// Coordinates are deliberately absent.
type AddressChange struct {
	AddressID id.AddressID
	OwnerID   id.UserID
	Kind      geofence.Kind
	Friends   []id.UserID
	ChangedAt time.Time
}

// AddressChangeNotifier hands approved changes to the external emitter.
type AddressChangeNotifier interface {
	NotifyAddressChanged(ctx context.Context, change AddressChange) error
}

// Service implements the address registry.
type Service struct {
	store          Store
	tx             StoreTx
	cfg            Config
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	friends        FriendLister
	notifier       AddressChangeNotifier
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

// WithTx replaces the in-process sharded lock, e.g. with a database
// transaction.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithNotifier enables close-friend notifications on approved changes.
func WithNotifier(friends FriendLister, notifier AddressChangeNotifier) Option {
	return func(s *Service) {
		s.friends = friends
		s.notifier = notifier
	}
}

// New constructs the registry service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("address store is required")
	}
	s := &Service{
		store:  store,
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx(store)
	}
	if s.auditPublisher == nil {
		return nil, errors.New("audit publisher is required")
	}
	return s, nil
}

// Register adds an address for the owner. An unlocked current address of
// the same singular kind is superseded; a locked one is a conflict.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Address, error) {
	radius, err := s.validateRegister(&req)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	actor := actorOrOwner(ctx, req.OwnerID)
	addr := &Address{
		ID:              id.NewAddressID(),
		OwnerID:         req.OwnerID,
		Kind:            req.Kind,
		Name:            req.Name,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		RadiusMeters:    radius,
		RegisteredAt:    now,
		ChangeLockUntil: now.Add(s.cfg.ChangeLock),
		Status:          StatusActive,
		Version:         1,
	}
	addr.Audit = []AuditEntry{addr.snapshot(now, actor, ActionRegistered, "")}

	err = s.tx.RunInTx(ctx, req.OwnerID, func(ctx context.Context, store Store) error {
		existing, err := store.ListByOwner(ctx, req.OwnerID)
		if err != nil {
			return s.translate(err)
		}
		if req.Kind.Singular() {
			for _, prev := range existing {
				if prev.Kind != req.Kind || !prev.IsCurrent() {
					continue
				}
				if err := s.supersede(ctx, store, prev, addr.ID, actor, now); err != nil {
					return err
				}
			}
		} else if countCurrent(existing, geofence.KindCustom) >= s.cfg.MaxCustomAddresses {
			return dErrors.Newf(dErrors.CodeConflict, "at most %d custom addresses may be active", s.cfg.MaxCustomAddresses)
		}

		if err := store.Create(ctx, addr); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Newf(dErrors.CodeConflict, "an active %s address already exists", req.Kind)
			}
			return s.translate(err)
		}
		return s.emit(ctx, addr, audit.EventAddressRegistered, "", actor)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementRegistered(string(req.Kind))
	}
	s.logger.InfoContext(ctx, "address registered",
		"address_id", addr.ID,
		"owner_id", addr.OwnerID,
		"kind", addr.Kind,
	)
	return addr.Clone(), nil
}

func (s *Service) supersede(ctx context.Context, store Store, prev *Address, replacement id.AddressID, actor string, now time.Time) error {
	if prev.Status == StatusPendingChange {
		return dErrors.Newf(dErrors.CodeConflict, "the current %s address has a pending change request", prev.Kind)
	}
	if prev.IsLocked(now) {
		return dErrors.Newf(dErrors.CodeConflict, "an active %s address already exists and is locked until %s",
			prev.Kind, prev.ChangeLockUntil.UTC().Format(time.DateOnly))
	}
	reason := "replaced by " + replacement.String()
	entry := prev.snapshot(now, actor, ActionSuperseded, reason)
	prev.Status = StatusSuperseded
	if err := store.Update(ctx, prev, prev.Version, entry); err != nil {
		return s.translate(err)
	}
	return s.emit(ctx, prev, audit.EventAddressSuperseded, reason, actor)
}

// ChangeAddress moves an unlocked address and restarts its lock.
func (s *Service) ChangeAddress(ctx context.Context, addressID id.AddressID, lat, lon float64) (*Address, error) {
	if err := geofence.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	addr, err := s.store.FindByID(ctx, addressID)
	if err != nil {
		return nil, s.translate(err)
	}

	now := requestcontext.Now(ctx)
	actor := actorOrOwner(ctx, addr.OwnerID)
	err = s.tx.RunInTx(ctx, addr.OwnerID, func(ctx context.Context, store Store) error {
		addr, err = store.FindByID(ctx, addressID)
		if err != nil {
			return s.translate(err)
		}
		switch addr.Status {
		case StatusSuperseded:
			return dErrors.New(dErrors.CodeConflict, "address has been superseded")
		case StatusPendingChange:
			return dErrors.New(dErrors.CodeConflict, "address has a pending change request")
		}
		if addr.IsLocked(now) {
			if s.metrics != nil {
				s.metrics.IncrementLocked()
			}
			return lockedError(addr, now)
		}

		entry := addr.snapshot(now, actor, ActionChanged, "")
		addr.Latitude = lat
		addr.Longitude = lon
		addr.ChangeLockUntil = now.Add(s.cfg.ChangeLock)
		if err := store.Update(ctx, addr, addr.Version, entry); err != nil {
			return s.translate(err)
		}
		return s.emit(ctx, addr, audit.EventAddressChanged, "", actor)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementChanged("direct")
	}
	s.logger.InfoContext(ctx, "address changed",
		"address_id", addr.ID,
		"owner_id", addr.OwnerID,
	)
	return addr.Clone(), nil
}

func lockedError(addr *Address, now time.Time) error {
	return dErrors.Newf(dErrors.CodeLocked,
		"address is locked until %s (%d days remaining); submit a special change request to move it earlier",
		addr.ChangeLockUntil.UTC().Format(time.DateOnly), addr.DaysUntilUnlock(now))
}

// SpecialChangeRequest files a request to move an address regardless of its
// lock. The address stays in place, marked pending_change, until reviewed.
func (s *Service) SpecialChangeRequest(ctx context.Context, addressID id.AddressID, in SpecialChangeInput) (*ChangeRequest, error) {
	if err := validateSpecialChange(in); err != nil {
		return nil, err
	}
	addr, err := s.store.FindByID(ctx, addressID)
	if err != nil {
		return nil, s.translate(err)
	}

	now := requestcontext.Now(ctx)
	actor := actorOrOwner(ctx, addr.OwnerID)
	req := &ChangeRequest{
		ID:           id.NewChangeRequestID(),
		AddressID:    addr.ID,
		OwnerID:      addr.OwnerID,
		NewLatitude:  in.NewLatitude,
		NewLongitude: in.NewLongitude,
		Reason:       in.Reason,
		Description:  in.Description,
		DocumentRef:  in.DocumentRef,
		Status:       RequestPending,
		CreatedAt:    now,
	}

	err = s.tx.RunInTx(ctx, addr.OwnerID, func(ctx context.Context, store Store) error {
		addr, err = store.FindByID(ctx, addressID)
		if err != nil {
			return s.translate(err)
		}
		switch addr.Status {
		case StatusSuperseded:
			return dErrors.New(dErrors.CodeConflict, "address has been superseded")
		case StatusPendingChange:
			return dErrors.New(dErrors.CodeConflict, "a change request is already pending for this address")
		}
		if err := store.CreateChangeRequest(ctx, req); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "a change request is already pending for this address")
			}
			return s.translate(err)
		}

		entry := addr.snapshot(now, actor, ActionChangeRequested, string(in.Reason))
		addr.Status = StatusPendingChange
		if err := store.Update(ctx, addr, addr.Version, entry); err != nil {
			return s.translate(err)
		}
		return s.emit(ctx, addr, audit.EventAddressChangeRequested, string(in.Reason), actor)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementChangeRequest("requested")
	}
	s.logger.InfoContext(ctx, "special change requested",
		"request_id", req.ID,
		"address_id", req.AddressID,
		"reason", req.Reason,
	)
	return req.Clone(), nil
}

// ApproveChangeRequest applies a pending request, restarts the lock and
// notifies the owner's close friends.
func (s *Service) ApproveChangeRequest(ctx context.Context, requestID id.ChangeRequestID, reviewerID, comment string) (*Address, error) {
	var addr *Address
	err := s.review(ctx, requestID, reviewerID, comment, RequestApproved, func(a *Address, req *ChangeRequest, now time.Time) {
		a.Latitude = req.NewLatitude
		a.Longitude = req.NewLongitude
		a.ChangeLockUntil = now.Add(s.cfg.ChangeLock)
		addr = a
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementChangeRequest("approved")
		s.metrics.IncrementChanged("approved")
	}
	s.notifyFriends(ctx, addr)
	return addr.Clone(), nil
}

// RejectChangeRequest closes a pending request and returns the address to
// active with its lock unchanged.
func (s *Service) RejectChangeRequest(ctx context.Context, requestID id.ChangeRequestID, reviewerID, comment string) (*Address, error) {
	var addr *Address
	err := s.review(ctx, requestID, reviewerID, comment, RequestRejected, func(a *Address, _ *ChangeRequest, _ time.Time) {
		addr = a
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementChangeRequest("rejected")
	}
	return addr.Clone(), nil
}

func (s *Service) review(
	ctx context.Context,
	requestID id.ChangeRequestID,
	reviewerID, comment string,
	outcome RequestStatus,
	apply func(addr *Address, req *ChangeRequest, now time.Time),
) error {
	if reviewerID == "" {
		return dErrors.New(dErrors.CodeValidation, "reviewer id is required")
	}
	if utf8.RuneCountInString(comment) > maxDescriptionLength {
		return dErrors.Newf(dErrors.CodeValidation, "comment must be at most %d characters", maxDescriptionLength)
	}
	req, err := s.store.FindChangeRequest(ctx, requestID)
	if err != nil {
		return s.translateRequest(err)
	}

	now := requestcontext.Now(ctx)
	action, event := ActionChangeApproved, audit.EventAddressChangeApproved
	if outcome == RequestRejected {
		action, event = ActionChangeRejected, audit.EventAddressChangeRejected
	}

	return s.tx.RunInTx(ctx, req.OwnerID, func(ctx context.Context, store Store) error {
		req, err := store.FindChangeRequest(ctx, requestID)
		if err != nil {
			return s.translateRequest(err)
		}
		if req.Status != RequestPending {
			return dErrors.Newf(dErrors.CodeConflict, "change request was already %s", req.Status)
		}
		addr, err := store.FindByID(ctx, req.AddressID)
		if err != nil {
			return s.translate(err)
		}

		reason := string(req.Reason)
		if comment != "" {
			reason += ": " + comment
		}
		entry := addr.snapshot(now, reviewerID, action, reason)
		apply(addr, req, now)
		addr.Status = StatusActive
		if err := store.Update(ctx, addr, addr.Version, entry); err != nil {
			return s.translate(err)
		}

		req.Status = outcome
		req.ReviewedAt = &now
		req.ReviewerID = reviewerID
		req.ReviewerComment = comment
		if err := store.UpdateChangeRequest(ctx, req, RequestPending); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "change request was reviewed concurrently")
			}
			return s.translateRequest(err)
		}

		if err := s.emit(ctx, addr, event, reason, reviewerID); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "change request reviewed",
			"request_id", req.ID,
			"address_id", addr.ID,
			"outcome", outcome,
			"reviewer", reviewerID,
		)
		return nil
	})
}

// notifyFriends runs after commit. Failures are logged; the change stands.
func (s *Service) notifyFriends(ctx context.Context, addr *Address) {
	if s.notifier == nil || s.friends == nil {
		return
	}
	friends, err := s.friends.CloseFriends(ctx, addr.OwnerID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve close friends for address change",
			"address_id", addr.ID,
			"error", err,
		)
		return
	}
	if len(friends) == 0 {
		return
	}
	change := AddressChange{
		AddressID: addr.ID,
		OwnerID:   addr.OwnerID,
		Kind:      addr.Kind,
		Friends:   friends,
		ChangedAt: requestcontext.Now(ctx),
	}
	if err := s.notifier.NotifyAddressChanged(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "failed to notify close friends of address change",
			"address_id", addr.ID,
			"friends", len(friends),
			"error", err,
		)
	}
}

// Get returns one address.
func (s *Service) Get(ctx context.Context, addressID id.AddressID) (*Address, error) {
	addr, err := s.store.FindByID(ctx, addressID)
	if err != nil {
		return nil, s.translate(err)
	}
	return addr, nil
}

// AuditTrail returns a copy of the address's audit entries, oldest first.
func (s *Service) AuditTrail(ctx context.Context, addressID id.AddressID) ([]AuditEntry, error) {
	addr, err := s.store.FindByID(ctx, addressID)
	if err != nil {
		return nil, s.translate(err)
	}
	trail := make([]AuditEntry, len(addr.Audit))
	copy(trail, addr.Audit)
	return trail, nil
}

// ListPendingRequests returns requests awaiting review, oldest first.
func (s *Service) ListPendingRequests(ctx context.Context) ([]*ChangeRequest, error) {
	reqs, err := s.store.ListPendingRequests(ctx)
	if err != nil {
		return nil, s.translateRequest(err)
	}
	return reqs, nil
}

// ActiveFences collects the owner's current addresses for classification.
// An address with a pending change keeps its registered position.
func (s *Service) ActiveFences(ctx context.Context, owner id.UserID) (geofence.Fences, error) {
	addrs, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return geofence.Fences{}, s.translate(err)
	}
	var fences geofence.Fences
	for _, addr := range addrs {
		if !addr.IsCurrent() {
			continue
		}
		f := addr.Fence()
		switch addr.Kind {
		case geofence.KindHome:
			fences.Home = &f
		case geofence.KindWork:
			fences.Work = &f
		case geofence.KindSchool:
			fences.School = &f
		case geofence.KindCustom:
			fences.Custom = append(fences.Custom, f)
		}
	}
	return fences, nil
}

func (s *Service) emit(ctx context.Context, addr *Address, event audit.AuditEvent, reason, actor string) error {
	err := s.auditPublisher.Emit(ctx, audit.Event{
		UserID:  addr.OwnerID,
		Subject: addr.ID.String(),
		Action:  string(event),
		Reason:  reason,
		ActorID: actor,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to record address audit event")
	}
	return nil
}

func (s *Service) translate(err error) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "address not found")
	case errors.Is(err, sentinel.ErrConflict):
		if s.metrics != nil {
			s.metrics.IncrementConflict()
		}
		return dErrors.New(dErrors.CodeConflict, "address was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "address store unavailable")
	}
}

func (s *Service) translateRequest(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "change request not found")
	}
	return s.translate(err)
}

func (s *Service) validateRegister(req *RegisterRequest) (float64, error) {
	if req.OwnerID.IsNil() {
		return 0, dErrors.New(dErrors.CodeValidation, "owner id is required")
	}
	if !req.Kind.IsValid() {
		return 0, dErrors.Newf(dErrors.CodeValidation, "unsupported address kind %q", req.Kind)
	}
	if err := geofence.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return 0, err
	}
	if req.Kind == geofence.KindCustom {
		if req.Name == "" {
			return 0, dErrors.New(dErrors.CodeValidation, "custom addresses need a name")
		}
		if utf8.RuneCountInString(req.Name) > maxNameLength {
			return 0, dErrors.Newf(dErrors.CodeValidation, "name must be at most %d characters", maxNameLength)
		}
	} else {
		req.Name = ""
	}

	radius := req.RadiusMeters
	if math.IsNaN(radius) || math.IsInf(radius, 0) {
		return 0, dErrors.New(dErrors.CodeValidation, "radius must be a finite number")
	}
	if radius == 0 {
		return s.cfg.DefaultRadius[req.Kind], nil
	}
	if radius < s.cfg.MinRadiusMeters || radius > s.cfg.MaxRadiusMeters {
		return 0, dErrors.Newf(dErrors.CodeValidation, "radius must be between %g and %g meters",
			s.cfg.MinRadiusMeters, s.cfg.MaxRadiusMeters)
	}
	return radius, nil
}

func validateSpecialChange(in SpecialChangeInput) error {
	if err := geofence.ValidateCoordinates(in.NewLatitude, in.NewLongitude); err != nil {
		return err
	}
	if !in.Reason.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "reason must be one of %s, %s, %s", ReasonMoving, ReasonJobChange, ReasonOther)
	}
	if in.Reason == ReasonOther && in.Description == "" {
		return dErrors.New(dErrors.CodeValidation, "a description is required when the reason is other")
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLength {
		return dErrors.Newf(dErrors.CodeValidation, "description must be at most %d characters", maxDescriptionLength)
	}
	if len(in.DocumentRef) > maxDocumentRefLength {
		return dErrors.Newf(dErrors.CodeValidation, "document reference must be at most %d bytes", maxDocumentRefLength)
	}
	return nil
}

func countCurrent(addrs []*Address, kind geofence.Kind) int {
	n := 0
	for _, a := range addrs {
		if a.Kind == kind && a.IsCurrent() {
			n++
		}
	}
	return n
}

func actorOrOwner(ctx context.Context, owner id.UserID) string {
	if actor := requestcontext.ActorID(ctx); actor != "" {
		return actor
	}
	return fmt.Sprintf("user:%s", owner)
}
