// Package admin exposes the operator surface: reviewing special change
// requests, reading address audit trails and triggering near-miss runs.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bubble/internal/address"
	"bubble/internal/nearmiss"
	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
	"bubble/pkg/platform/httputil"
	adminmw "bubble/pkg/platform/middleware/admin"
	request "bubble/pkg/platform/middleware/request"
	"bubble/pkg/requestcontext"
)

// AddressReviewer is the slice of the address registry the admin surface uses.
type AddressReviewer interface {
	AuditTrail(ctx context.Context, addressID id.AddressID) ([]address.AuditEntry, error)
	ListPendingRequests(ctx context.Context) ([]*address.ChangeRequest, error)
	ApproveChangeRequest(ctx context.Context, requestID id.ChangeRequestID, reviewerID, comment string) (*address.Address, error)
	RejectChangeRequest(ctx context.Context, requestID id.ChangeRequestID, reviewerID, comment string) (*address.Address, error)
}

// RunTrigger starts a near-miss run for the day containing date.
type RunTrigger interface {
	Run(ctx context.Context, date time.Time) ([]nearmiss.Event, error)
}

// Handler serves the /admin routes.
type Handler struct {
	addresses  AddressReviewer
	runs       RunTrigger
	adminToken string
	location   *time.Location
	logger     *slog.Logger
}

type Option func(*Handler)

// WithLocation sets the zone run dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) {
		if loc != nil {
			h.location = loc
		}
	}
}

func New(addresses AddressReviewer, runs RunTrigger, adminToken string, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		addresses:  addresses,
		runs:       runs,
		adminToken: adminToken,
		location:   time.UTC,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the admin routes behind the admin token.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(h.adminToken, h.logger))
		r.Get("/addresses/{id}/audit", h.handleAuditTrail)
		r.Get("/change-requests", h.handleListPending)
		r.Post("/change-requests/{id}/approve", h.handleApprove)
		r.Post("/change-requests/{id}/reject", h.handleReject)
		r.Post("/nearmiss/runs", h.handleRun)
	})
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	addressID, err := id.ParseAddressID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	trail, err := h.addresses.AuditTrail(ctx, addressID)
	if err != nil {
		h.logFailure(ctx, "failed to load audit trail", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AuditTrailResponse{
		AddressID: addressID.String(),
		Entries:   trail,
	})
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pending, err := h.addresses.ListPendingRequests(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list change requests", request.GetRequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ChangeRequestsResponse{
		Requests: pending,
		Total:    len(pending),
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleReview(w, r, h.addresses.ApproveChangeRequest, "approved")
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleReview(w, r, h.addresses.RejectChangeRequest, "rejected")
}

type reviewFunc func(ctx context.Context, requestID id.ChangeRequestID, reviewerID, comment string) (*address.Address, error)

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request, review reviewFunc, outcome string) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	changeID, err := id.ParseChangeRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reviewer := requestcontext.ActorID(ctx)
	addr, err := review(ctx, changeID, reviewer, body.Comment)
	if err != nil {
		h.logFailure(ctx, "change request review failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "change request reviewed",
		"request_id", requestID,
		"change_request_id", changeID,
		"outcome", outcome,
		"reviewer", reviewer,
	)
	httputil.WriteJSON(w, http.StatusOK, ReviewResponse{
		ChangeRequestID: changeID.String(),
		Outcome:         outcome,
		Address:         toAddressResponse(addr),
	})
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	body, ok := httputil.DecodeAndPrepare[RunRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	date, err := time.ParseInLocation(time.DateOnly, body.Date, h.location)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "date must be YYYY-MM-DD"))
		return
	}

	// The run outlives the request; it is committed or discarded atomically.
	events, err := h.runs.Run(context.WithoutCancel(ctx), date)
	if err != nil {
		h.logFailure(ctx, "manual near-miss run failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID.String())
	}
	httputil.WriteJSON(w, http.StatusOK, RunResponse{
		RunDate:  body.Date,
		Events:   len(events),
		EventIDs: ids,
	})
}

func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error) {
	level := slog.LevelWarn
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestID,
		"error", err,
	)
}
