package admin

import (
	"time"

	"bubble/internal/address"
)

// AuditTrailResponse is the read-only history of one address.
type AuditTrailResponse struct {
	AddressID string               `json:"address_id"`
	Entries   []address.AuditEntry `json:"entries"`
}

// ChangeRequestsResponse lists pending special change requests, oldest first.
type ChangeRequestsResponse struct {
	Requests []*address.ChangeRequest `json:"requests"`
	Total    int                      `json:"total"`
}

// AddressResponse describes an address without its coordinates.
type AddressResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Kind            string    `json:"kind"`
	Status          string    `json:"status"`
	ChangeLockUntil time.Time `json:"change_lock_until"`
	Version         int64     `json:"version"`
}

type ReviewResponse struct {
	ChangeRequestID string          `json:"change_request_id"`
	Outcome         string          `json:"outcome"`
	Address         AddressResponse `json:"address"`
}

type RunResponse struct {
	RunDate  string   `json:"run_date"`
	Events   int      `json:"events"`
	EventIDs []string `json:"event_ids"`
}

func toAddressResponse(a *address.Address) AddressResponse {
	if a == nil {
		return AddressResponse{}
	}
	return AddressResponse{
		ID:              a.ID.String(),
		OwnerID:         a.OwnerID.String(),
		Kind:            string(a.Kind),
		Status:          string(a.Status),
		ChangeLockUntil: a.ChangeLockUntil,
		Version:         a.Version,
	}
}
