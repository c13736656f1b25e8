package admin_test

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks AddressReviewer,RunTrigger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"bubble/internal/address"
	"bubble/internal/admin"
	"bubble/internal/admin/mocks"
	"bubble/internal/geofence"
	"bubble/internal/nearmiss"
	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
	"bubble/pkg/testutil"
)

// =============================================================================
// Admin Handler Test Suite
// =============================================================================
// Justification for unit tests: the handler owns the HTTP contract of the
// review surface. Token enforcement, reviewer attribution and error mapping
// are verified here against mocked services.

const adminToken = "test-admin-token"

type AdminHandlerSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	addresses *mocks.MockAddressReviewer
	runs      *mocks.MockRunTrigger
	router    chi.Router
	tokyo     *time.Location
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.addresses = mocks.NewMockAddressReviewer(s.ctrl)
	s.runs = mocks.NewMockRunTrigger(s.ctrl)
	s.tokyo = time.FixedZone("JST", 9*60*60)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := admin.New(s.addresses, s.runs, adminToken, logger, admin.WithLocation(s.tokyo))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *AdminHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AdminHandlerSuite) authorized(req *http.Request) *http.Request {
	req.Header.Set("X-Admin-Token", adminToken)
	req.Header.Set("X-Admin-Actor", "reviewer-1")
	return req
}

func (s *AdminHandlerSuite) TestRequiresAdminToken() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/change-requests")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *AdminHandlerSuite) TestAuditTrail() {
	addressID := id.NewAddressID()

	s.Run("returns the entries in order", func() {
		at := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
		s.addresses.EXPECT().AuditTrail(gomock.Any(), addressID).Return([]address.AuditEntry{
			{At: at, Actor: "user:1", Action: address.ActionRegistered},
			{At: at.Add(time.Hour), Actor: "reviewer-1", Action: address.ActionChangeApproved},
		}, nil)

		rr := testutil.DoRequest(s.router, s.authorized(
			testutil.NewRequest(s.T(), http.MethodGet, "/admin/addresses/"+addressID.String()+"/audit")))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[admin.AuditTrailResponse](s.T(), rr)
		s.Equal(addressID.String(), resp.AddressID)
		s.Require().Len(resp.Entries, 2)
		s.Equal(address.ActionRegistered, resp.Entries[0].Action)
	})

	s.Run("unknown address is 404", func() {
		s.addresses.EXPECT().AuditTrail(gomock.Any(), addressID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "address not found"))

		rr := testutil.DoRequest(s.router, s.authorized(
			testutil.NewRequest(s.T(), http.MethodGet, "/admin/addresses/"+addressID.String()+"/audit")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed id is rejected before the service", func() {
		rr := testutil.DoRequest(s.router, s.authorized(
			testutil.NewRequest(s.T(), http.MethodGet, "/admin/addresses/not-a-uuid/audit")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *AdminHandlerSuite) TestListPending() {
	pending := []*address.ChangeRequest{
		{ID: id.NewChangeRequestID(), Reason: address.ReasonMoving, Status: address.RequestPending},
	}
	s.addresses.EXPECT().ListPendingRequests(gomock.Any()).Return(pending, nil)

	rr := testutil.DoRequest(s.router, s.authorized(
		testutil.NewRequest(s.T(), http.MethodGet, "/admin/change-requests")))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[admin.ChangeRequestsResponse](s.T(), rr)
	s.Equal(1, resp.Total)
	s.Equal(pending[0].ID, resp.Requests[0].ID)
}

func (s *AdminHandlerSuite) TestReview() {
	changeID := id.NewChangeRequestID()
	addr := &address.Address{
		ID:      id.NewAddressID(),
		OwnerID: id.UserID(uuid.New()),
		Kind:    geofence.KindHome,
		Status:  address.StatusActive,
		Version: 3,
	}

	s.Run("approve attributes the reviewer from the admin actor", func() {
		s.addresses.EXPECT().ApproveChangeRequest(gomock.Any(), changeID, "reviewer-1", "lease verified").
			Return(addr, nil)

		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/admin/change-requests/"+changeID.String()+"/approve",
			map[string]string{"comment": "  lease verified "}))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[admin.ReviewResponse](s.T(), rr)
		s.Equal("approved", resp.Outcome)
		s.Equal(addr.ID.String(), resp.Address.ID)
		s.Equal(int64(3), resp.Address.Version)
	})

	s.Run("reject of an already reviewed request is 409", func() {
		s.addresses.EXPECT().RejectChangeRequest(gomock.Any(), changeID, "reviewer-1", "").
			Return(nil, dErrors.New(dErrors.CodeConflict, "change request already reviewed"))

		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/admin/change-requests/"+changeID.String()+"/reject", map[string]string{}))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("invalid JSON never reaches the service", func() {
		req := s.authorized(testutil.NewRequestWithBody(s.T(), http.MethodPost,
			"/admin/change-requests/"+changeID.String()+"/approve", "{"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *AdminHandlerSuite) TestTriggerRun() {
	s.Run("runs the requested day in the configured zone", func() {
		want := time.Date(2026, 4, 9, 0, 0, 0, 0, s.tokyo)
		events := []nearmiss.Event{{ID: id.EventID(uuid.New())}}
		s.runs.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, date time.Time) ([]nearmiss.Event, error) {
				s.True(want.Equal(date))
				return events, nil
			})

		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/admin/nearmiss/runs", map[string]string{"date": "2026-04-09"}))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[admin.RunResponse](s.T(), rr)
		s.Equal("2026-04-09", resp.RunDate)
		s.Equal(1, resp.Events)
		s.Equal([]string{events[0].ID.String()}, resp.EventIDs)
	})

	s.Run("malformed date is 400", func() {
		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/admin/nearmiss/runs", map[string]string{"date": "09/04/2026"}))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("aborted run surfaces as 503", func() {
		s.runs.EXPECT().Run(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnavailable, "history store unavailable"))

		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/admin/nearmiss/runs", map[string]string{"date": "2026-04-09"}))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "unavailable")
	})
}
