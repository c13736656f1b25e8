package location_test

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks FenceSource,HistoryWriter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"bubble/internal/address"
	addressmemory "bubble/internal/address/store/memory"
	"bubble/internal/geofence"
	"bubble/internal/history"
	"bubble/internal/history/sealer"
	historymemory "bubble/internal/history/store/memory"
	"bubble/internal/location"
	"bubble/internal/location/mocks"
	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
	"bubble/pkg/platform/audit/publishers/compliance"
	auditmemory "bubble/pkg/platform/audit/store/memory"
	"bubble/pkg/requestcontext"
)

// =============================================================================
// Location Reporting Test Suite
// =============================================================================
// Justification for unit tests: Report is where a raw sample meets the
// registry and the sealed store. The status must come back while only
// ciphertext is kept.

type LocationServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	registry     *address.Service
	historyStore *historymemory.InMemoryStore
	history      *history.Service
	service      *location.Service
	user         id.UserID
	now          time.Time
}

func TestLocationServiceSuite(t *testing.T) {
	suite.Run(t, new(LocationServiceSuite))
}

func (s *LocationServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.registry, err = address.New(addressmemory.New(),
		address.WithAuditPublisher(compliance.New(auditmemory.NewInMemoryStore())),
		address.WithLogger(logger),
	)
	s.Require().NoError(err)

	ring, err := sealer.NewKeyring("v1", map[string][]byte{"v1": bytes.Repeat([]byte{5}, sealer.KeySize)})
	s.Require().NoError(err)
	s.historyStore = historymemory.New()
	s.history, err = history.New(s.historyStore, sealer.New(ring), history.WithLogger(logger))
	s.Require().NoError(err)

	s.service, err = location.New(s.registry, s.history, geofence.New(geofence.DefaultConfig()), location.WithLogger(logger))
	s.Require().NoError(err)

	s.user = id.UserID(uuid.New())
	s.now = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
}

func (s *LocationServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LocationServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *LocationServiceSuite) TestReportInsideHome() {
	home, err := s.registry.Register(s.ctx(), address.RegisterRequest{
		OwnerID: s.user, Kind: geofence.KindHome, Latitude: 35.0, Longitude: 139.0, RadiusMeters: 200,
	})
	s.Require().NoError(err)

	status, err := s.service.Report(s.ctx(), location.Sample{
		UserID:   s.user,
		Position: geofence.Position{Latitude: 35.0005, Longitude: 139.0, Timestamp: s.now},
	})
	s.Require().NoError(err)
	s.Equal(geofence.StatusHome, status.Type)
	s.Equal(home.ID, status.AddressID)
	s.Equal(s.now, status.ComputedAt)
	s.Equal(1, s.historyStore.Count())

	series, err := s.history.Query(s.ctx(), s.user, s.now.Add(-time.Hour), s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(series.Points, 1)
	s.Equal(35.0005, series.Points[0].Latitude)
}

func (s *LocationServiceSuite) TestReportWithoutFences() {
	s.Run("fast sample is moving", func() {
		status, err := s.service.Report(s.ctx(), location.Sample{
			UserID:   s.user,
			Position: geofence.Position{Latitude: 10, Longitude: 10, Speed: 3, Timestamp: s.now},
		})
		s.Require().NoError(err)
		s.Equal(geofence.StatusMoving, status.Type)
	})

	s.Run("slow sample is unknown", func() {
		status, err := s.service.Report(s.ctx(), location.Sample{
			UserID:   s.user,
			Position: geofence.Position{Latitude: 10, Longitude: 10, Speed: 1, Timestamp: s.now},
		})
		s.Require().NoError(err)
		s.Equal(geofence.StatusUnknown, status.Type)
	})
}

func (s *LocationServiceSuite) TestReportRejectsInvalidSamples() {
	_, err := s.service.Report(s.ctx(), location.Sample{
		UserID:   s.user,
		Position: geofence.Position{Latitude: 95, Longitude: 10, Timestamp: s.now},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Report(s.ctx(), location.Sample{
		Position: geofence.Position{Latitude: 10, Longitude: 10, Timestamp: s.now},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal(0, s.historyStore.Count())
}

func (s *LocationServiceSuite) TestReportFailures() {
	s.Run("registry failure withholds the status", func() {
		fences := mocks.NewMockFenceSource(s.ctrl)
		writer := mocks.NewMockHistoryWriter(s.ctrl)
		svc, err := location.New(fences, writer, nil)
		s.Require().NoError(err)

		fences.EXPECT().ActiveFences(gomock.Any(), s.user).
			Return(geofence.Fences{}, dErrors.New(dErrors.CodeUnavailable, "address store unavailable"))

		_, err = svc.Report(s.ctx(), location.Sample{
			UserID:   s.user,
			Position: geofence.Position{Latitude: 10, Longitude: 10, Timestamp: s.now},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("history failure withholds the status", func() {
		fences := mocks.NewMockFenceSource(s.ctrl)
		writer := mocks.NewMockHistoryWriter(s.ctrl)
		svc, err := location.New(fences, writer, nil)
		s.Require().NoError(err)

		fences.EXPECT().ActiveFences(gomock.Any(), s.user).Return(geofence.Fences{}, nil)
		writer.EXPECT().Append(gomock.Any(), s.user, gomock.Any()).
			Return(id.RecordID{}, dErrors.Wrap(errors.New("redis down"), dErrors.CodeUnavailable, "failed to store location record"))

		status, err := svc.Report(s.ctx(), location.Sample{
			UserID:   s.user,
			Position: geofence.Position{Latitude: 10, Longitude: 10, Timestamp: s.now},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Empty(status.Type)
	})
}

func (s *LocationServiceSuite) TestNew() {
	_, err := location.New(nil, s.history, nil)
	s.Error(err)
	_, err = location.New(s.registry, nil, nil)
	s.Error(err)
}
