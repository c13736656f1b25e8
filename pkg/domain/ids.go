package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "bubble/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so the compiler rejects passing an
// address id where a user id is expected.
type (
	UserID          uuid.UUID
	AddressID       uuid.UUID
	ChangeRequestID uuid.UUID
	RecordID        uuid.UUID
	EventID         uuid.UUID
)

func (id UserID) String() string          { return uuid.UUID(id).String() }
func (id AddressID) String() string       { return uuid.UUID(id).String() }
func (id ChangeRequestID) String() string { return uuid.UUID(id).String() }
func (id RecordID) String() string        { return uuid.UUID(id).String() }
func (id EventID) String() string         { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id AddressID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ChangeRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders ids as canonical UUID strings in JSON and logs.
func (id UserID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }
func (id AddressID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id ChangeRequestID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id RecordID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }

// UnmarshalText accepts any UUID form the uuid package parses, so JSON
// produced by MarshalText decodes back into the same id.
func (id *UserID) UnmarshalText(b []byte) error          { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AddressID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ChangeRequestID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RecordID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EventID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }

// Less orders user ids by their canonical string form. Pair canonicalisation
// relies on this being a strict total order.
func (id UserID) Less(other UserID) bool {
	return strings.Compare(id.String(), other.String()) < 0
}

func NewAddressID() AddressID             { return AddressID(uuid.New()) }
func NewChangeRequestID() ChangeRequestID { return ChangeRequestID(uuid.New()) }
func NewRecordID() RecordID               { return RecordID(uuid.New()) }

// ParseUserID parses a user id received at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseAddressID parses an address id received at a trust boundary.
func ParseAddressID(s string) (AddressID, error) {
	u, err := parseUUID(s, "address id")
	return AddressID(u), err
}

// ParseChangeRequestID parses a change request id received at a trust boundary.
func ParseChangeRequestID(s string) (ChangeRequestID, error) {
	u, err := parseUUID(s, "change request id")
	return ChangeRequestID(u), err
}

// parseUUID enforces: non-empty, valid UTF-8, canonical UUID, not the nil UUID.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must be valid UTF-8")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
