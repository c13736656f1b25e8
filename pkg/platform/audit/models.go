package audit

import (
	"context"
	"time"

	id "bubble/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and storage backends.
type EventCategory string

const (
	// CategoryCompliance covers events with legal or trust significance:
	// address registration and every address mutation or review decision.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations is the fallback for events without a compliance role.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It never carries
// coordinates; Subject names the affected entity by id.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Subject   string
	Action    string
	Reason    string
	RequestID string
	// ActorID tracks who performed the action when different from UserID,
	// e.g. the reviewer approving a special address change.
	ActorID string
}

type AuditEvent string

const (
	EventAddressRegistered      AuditEvent = "address_registered"
	EventAddressSuperseded      AuditEvent = "address_superseded"
	EventAddressChanged         AuditEvent = "address_changed"
	EventAddressChangeRequested AuditEvent = "address_change_requested"
	EventAddressChangeApproved  AuditEvent = "address_change_approved"
	EventAddressChangeRejected  AuditEvent = "address_change_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAddressRegistered:      CategoryCompliance,
	EventAddressSuperseded:      CategoryCompliance,
	EventAddressChanged:         CategoryCompliance,
	EventAddressChangeRequested: CategoryCompliance,
	EventAddressChangeApproved:  CategoryCompliance,
	EventAddressChangeRejected:  CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Implementations must be append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
