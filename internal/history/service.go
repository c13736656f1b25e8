package history

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"bubble/internal/geofence"
	"bubble/internal/history/metrics"
	"bubble/internal/history/sealer"
	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
	"bubble/pkg/requestcontext"
)

// Store persists sealed records. Implementations are pure I/O; expiry
// decisions use the now passed in by the service.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	// ListActive returns the user's records with ExpiresAt after now.
	ListActive(ctx context.Context, userID id.UserID, now time.Time) ([]*Record, error)
	// DeleteExpired removes records with ExpiresAt at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Sealer encrypts payloads per user.
type Sealer interface {
	Seal(userID id.UserID, plaintext []byte) (keyRef string, blob []byte, err error)
	Open(userID id.UserID, keyRef string, blob []byte) ([]byte, error)
}

// Reader is the only path to decrypted history. It is handed to the
// near-miss batch and nothing else.
type Reader interface {
	Query(ctx context.Context, userID id.UserID, from, to time.Time) (Series, error)
	Sweep(ctx context.Context) (int, error)
}

// Service seals, stores, decrypts and purges location history.
type Service struct {
	store     Store
	sealer    Sealer
	retention time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
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

// WithRetention overrides DefaultRetention.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

// New constructs a history Service.
func New(store Store, sealer Sealer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("history store is required")
	}
	if sealer == nil {
		return nil, errors.New("history sealer is required")
	}
	s := &Service{
		store:     store,
		sealer:    sealer,
		retention: DefaultRetention,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Append seals the sample and stores it with an expiry of now + retention.
func (s *Service) Append(ctx context.Context, userID id.UserID, pos geofence.Position) (id.RecordID, error) {
	if userID.IsNil() {
		return id.RecordID{}, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	if err := geofence.ValidatePosition(pos); err != nil {
		return id.RecordID{}, err
	}

	plaintext, err := encodePoint(Point{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Accuracy:  pos.Accuracy,
		Speed:     pos.Speed,
		Timestamp: pos.Timestamp,
	})
	if err != nil {
		return id.RecordID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode location payload")
	}
	keyRef, blob, err := s.sealer.Seal(userID, plaintext)
	clear(plaintext)
	if err != nil {
		return id.RecordID{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to seal location record")
	}

	now := requestcontext.Now(ctx)
	rec := &Record{
		ID:         id.NewRecordID(),
		UserID:     userID,
		KeyRef:     keyRef,
		Ciphertext: blob,
		InsertedAt: now,
		ExpiresAt:  now.Add(s.retention),
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return id.RecordID{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store location record")
	}
	if s.metrics != nil {
		s.metrics.IncrementAppended()
	}
	return rec.ID, nil
}

// Query decrypts the user's unexpired points with timestamps in [from, to),
// sorted by timestamp. Records that fail to open are skipped and counted.
// An unknown key reference or a store failure returns CodeUnavailable and no
// points.
func (s *Service) Query(ctx context.Context, userID id.UserID, from, to time.Time) (Series, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveQuery(start)
		}
	}()

	now := requestcontext.Now(ctx)
	records, err := s.store.ListActive(ctx, userID, now)
	if err != nil {
		return Series{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load location history")
	}

	var series Series
	for _, rec := range records {
		if rec.Corrupt {
			series.Corrupt++
			s.skipCorrupt(ctx, rec)
			continue
		}
		if rec.IsExpired(now) {
			continue
		}
		point, err := s.open(rec)
		if errors.Is(err, sealer.ErrUnknownKey) {
			series.Wipe()
			return Series{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "location key unavailable")
		}
		if err != nil {
			series.Corrupt++
			s.skipCorrupt(ctx, rec)
			continue
		}
		if point.Timestamp.Before(from) || !point.Timestamp.Before(to) {
			continue
		}
		series.Points = append(series.Points, point)
	}

	slices.SortStableFunc(series.Points, func(a, b Point) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return series, nil
}

func (s *Service) skipCorrupt(ctx context.Context, rec *Record) {
	if s.metrics != nil {
		s.metrics.IncrementCorrupt()
	}
	s.logger.WarnContext(ctx, "corrupt location record skipped",
		"record_id", rec.ID,
	)
}

func (s *Service) open(rec *Record) (Point, error) {
	plaintext, err := s.sealer.Open(rec.UserID, rec.KeyRef, rec.Ciphertext)
	if err != nil {
		return Point{}, err
	}
	defer clear(plaintext)

	point, err := decodePoint(plaintext)
	if err != nil {
		return Point{}, errors.Join(sealer.ErrCorrupt, err)
	}
	return point, nil
}

// Sweep physically deletes every record whose expiry is at or before now.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	n, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to purge expired location history")
	}
	if s.metrics != nil {
		s.metrics.AddPurged(n)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired location records purged", "count", n)
	}
	return n, nil
}
