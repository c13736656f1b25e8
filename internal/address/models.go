// Package address is the registry of owners' home, work, school and custom
// addresses. Registered coordinates are locked for a cool-down period; a
// special change request reviewed by an admin is the only way around it.
package address

import (
	"slices"
	"time"

	"bubble/internal/geofence"
	id "bubble/pkg/domain"
)

// Status tracks an address through its lifecycle. Addresses are never deleted.
type Status string

const (
	StatusActive        Status = "active"
	StatusPendingChange Status = "pending_change"
	StatusSuperseded    Status = "superseded"
)

// AuditAction names the mutation an audit entry records.
type AuditAction string

const (
	ActionRegistered      AuditAction = "registered"
	ActionChanged         AuditAction = "changed"
	ActionSuperseded      AuditAction = "superseded"
	ActionChangeRequested AuditAction = "change_requested"
	ActionChangeApproved  AuditAction = "change_approved"
	ActionChangeRejected  AuditAction = "change_rejected"
)

// AuditEntry is an immutable snapshot of the values an address held before a
// mutation, with who made it and why.
type AuditEntry struct {
	At            time.Time   `json:"at"`
	Actor         string      `json:"actor"`
	Action        AuditAction `json:"action"`
	Reason        string      `json:"reason,omitempty"`
	PrevLatitude  float64     `json:"prev_latitude"`
	PrevLongitude float64     `json:"prev_longitude"`
	PrevRadius    float64     `json:"prev_radius_meters"`
}

// Address is a registered address with its fence radius and change lock.
type Address struct {
	ID              id.AddressID
	OwnerID         id.UserID
	Kind            geofence.Kind
	Name            string
	Latitude        float64
	Longitude       float64
	RadiusMeters    float64
	RegisteredAt    time.Time
	ChangeLockUntil time.Time
	Status          Status
	// Version increments on every persisted mutation.
	Version int64
	Audit   []AuditEntry
}

// IsLocked reports whether coordinate changes are still blocked at now.
func (a *Address) IsLocked(now time.Time) bool {
	return now.Before(a.ChangeLockUntil)
}

// DaysUntilUnlock rounds the remaining lock up to whole days.
func (a *Address) DaysUntilUnlock(now time.Time) int {
	if !a.IsLocked(now) {
		return 0
	}
	remaining := a.ChangeLockUntil.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// IsCurrent reports whether the address still takes part in classification.
func (a *Address) IsCurrent() bool {
	return a.Status != StatusSuperseded
}

// Fence projects the address onto a classifier fence.
func (a *Address) Fence() geofence.Fence {
	return geofence.Fence{
		AddressID:    a.ID,
		Kind:         a.Kind,
		Name:         a.Name,
		Latitude:     a.Latitude,
		Longitude:    a.Longitude,
		RadiusMeters: a.RadiusMeters,
		RegisteredAt: a.RegisteredAt,
	}
}

func (a *Address) snapshot(at time.Time, actor string, action AuditAction, reason string) AuditEntry {
	return AuditEntry{
		At:            at,
		Actor:         actor,
		Action:        action,
		Reason:        reason,
		PrevLatitude:  a.Latitude,
		PrevLongitude: a.Longitude,
		PrevRadius:    a.RadiusMeters,
	}
}

// Clone returns a deep copy.
func (a *Address) Clone() *Address {
	cp := *a
	cp.Audit = slices.Clone(a.Audit)
	return &cp
}

// ChangeReason is why an owner asks to bypass the change lock.
type ChangeReason string

const (
	ReasonMoving    ChangeReason = "moving"
	ReasonJobChange ChangeReason = "job_change"
	ReasonOther     ChangeReason = "other"
)

func (r ChangeReason) IsValid() bool {
	switch r {
	case ReasonMoving, ReasonJobChange, ReasonOther:
		return true
	}
	return false
}

// RequestStatus is the review state of a ChangeRequest.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ChangeRequest asks an admin to move a locked address.
type ChangeRequest struct {
	ID              id.ChangeRequestID `json:"id"`
	AddressID       id.AddressID       `json:"address_id"`
	OwnerID         id.UserID          `json:"owner_id"`
	NewLatitude     float64            `json:"-"`
	NewLongitude    float64            `json:"-"`
	Reason          ChangeReason       `json:"reason"`
	Description     string             `json:"description,omitempty"`
	DocumentRef     string             `json:"document_ref,omitempty"`
	Status          RequestStatus      `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	ReviewedAt      *time.Time         `json:"reviewed_at,omitempty"`
	ReviewerID      string             `json:"reviewer_id,omitempty"`
	ReviewerComment string             `json:"reviewer_comment,omitempty"`
}

// Clone returns a copy that does not share the ReviewedAt pointer.
func (r *ChangeRequest) Clone() *ChangeRequest {
	cp := *r
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		cp.ReviewedAt = &t
	}
	return &cp
}

// RegisterRequest is the input to Service.Register. A zero radius takes the
// kind's default.
type RegisterRequest struct {
	OwnerID      id.UserID
	Kind         geofence.Kind
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// SpecialChangeInput is the input to Service.SpecialChangeRequest.
type SpecialChangeInput struct {
	NewLatitude  float64
	NewLongitude float64
	Reason       ChangeReason
	Description  string
	DocumentRef  string
}
