// Package location is the entry point for device samples: it classifies the
// sample against the owner's fences and stores it sealed.
package location

import (
	"context"
	"errors"
	"log/slog"

	"bubble/internal/geofence"
	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
)

// Sample is one device position report.
type Sample struct {
	UserID   id.UserID
	Position geofence.Position
}

// FenceSource supplies an owner's current fences.
type FenceSource interface {
	ActiveFences(ctx context.Context, owner id.UserID) (geofence.Fences, error)
}

// HistoryWriter seals and stores a sample.
type HistoryWriter interface {
	Append(ctx context.Context, userID id.UserID, pos geofence.Position) (id.RecordID, error)
}

// Service reports samples.
type Service struct {
	fences     FenceSource
	history    HistoryWriter
	classifier *geofence.Classifier
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(fences FenceSource, history HistoryWriter, classifier *geofence.Classifier, opts ...Option) (*Service, error) {
	if fences == nil {
		return nil, errors.New("fence source is required")
	}
	if history == nil {
		return nil, errors.New("history writer is required")
	}
	if classifier == nil {
		classifier = geofence.New(geofence.DefaultConfig())
	}
	s := &Service{
		fences:     fences,
		history:    history,
		classifier: classifier,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Report classifies the sample and appends it to the owner's history. The
// status is returned to the caller and never stored. If the sample cannot
// be stored the status is withheld too.
func (s *Service) Report(ctx context.Context, sample Sample) (geofence.Status, error) {
	if sample.UserID.IsNil() {
		return geofence.Status{}, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	if err := geofence.ValidatePosition(sample.Position); err != nil {
		return geofence.Status{}, err
	}

	fences, err := s.fences.ActiveFences(ctx, sample.UserID)
	if err != nil {
		return geofence.Status{}, err
	}
	status := s.classifier.ClassifyFences(sample.Position, fences)

	if _, err := s.history.Append(ctx, sample.UserID, sample.Position); err != nil {
		return geofence.Status{}, err
	}

	s.logger.DebugContext(ctx, "location reported",
		"user_id", sample.UserID,
		"status", status.Type,
	)
	return status, nil
}
