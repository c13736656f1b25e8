// Package geofence maps a device position onto a coarse location status using
// the owner's registered address fences. Classification is pure: no I/O, no
// clock, no shared state, so a Classifier is safe for unbounded parallel use.
package geofence

import (
	"math"
	"slices"
	"time"

	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
)

// StatusType is the coarse status shown to other users.
type StatusType string

const (
	StatusHome    StatusType = "home"
	StatusWork    StatusType = "work"
	StatusSchool  StatusType = "school"
	StatusCustom  StatusType = "custom"
	StatusMoving  StatusType = "moving"
	StatusUnknown StatusType = "unknown"
)

// Kind is the category of a registered address fence.
type Kind string

const (
	KindHome   Kind = "home"
	KindWork   Kind = "work"
	KindSchool Kind = "school"
	KindCustom Kind = "custom"
)

// IsValid reports whether k is a known fence kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindHome, KindWork, KindSchool, KindCustom:
		return true
	}
	return false
}

// Singular reports whether an owner may hold at most one active fence of this kind.
func (k Kind) Singular() bool {
	return k == KindHome || k == KindWork || k == KindSchool
}

// Position is one device sample. Speed is in m/s and Accuracy in meters;
// both may be zero when the device did not report them.
type Position struct {
	Latitude  float64
	Longitude float64
	Speed     float64
	Accuracy  float64
	Timestamp time.Time
}

// Fence is a circular region around a registered address.
type Fence struct {
	AddressID    id.AddressID
	Kind         Kind
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	RegisteredAt time.Time
}

// Fences groups an owner's active fences by priority slot.
type Fences struct {
	Home   *Fence
	Work   *Fence
	School *Fence
	Custom []Fence
}

// Status is the derived, never persisted classification result.
type Status struct {
	Type       StatusType   `json:"type"`
	ComputedAt time.Time    `json:"computed_at"`
	AddressID  id.AddressID `json:"address_id,omitzero"`
	Label      string       `json:"label,omitempty"`
}

// Config holds classifier thresholds.
type Config struct {
	MovingThresholdKmh float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{MovingThresholdKmh: 5}
}

// Classifier computes location statuses.
type Classifier struct {
	cfg Config
}

// New constructs a Classifier with the given thresholds.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify evaluates home, then work, then custom fences.
func (c *Classifier) Classify(pos Position, home, work *Fence, customs []Fence) Status {
	return c.ClassifyFences(pos, Fences{Home: home, Work: work, Custom: customs})
}

// ClassifyFences evaluates fences in fixed priority order: home, work, school,
// then custom fences in registration order. The first fence containing the
// position wins. With no match the status is moving or unknown depending on speed.
// ComputedAt is the sample timestamp so identical inputs give identical output.
func (c *Classifier) ClassifyFences(pos Position, fences Fences) Status {
	for _, f := range []*Fence{fences.Home, fences.Work, fences.School} {
		if contains(f, pos) {
			return statusFor(f, pos)
		}
	}
	for _, f := range orderedCustom(fences.Custom) {
		if contains(&f, pos) {
			return statusFor(&f, pos)
		}
	}

	if speedKmh(pos.Speed) > c.cfg.MovingThresholdKmh {
		return Status{Type: StatusMoving, ComputedAt: pos.Timestamp}
	}
	return Status{Type: StatusUnknown, ComputedAt: pos.Timestamp}
}

func contains(f *Fence, pos Position) bool {
	if f == nil || !(f.RadiusMeters > 0) {
		return false
	}
	return Distance(pos.Latitude, pos.Longitude, f.Latitude, f.Longitude) <= f.RadiusMeters
}

func statusFor(f *Fence, pos Position) Status {
	s := Status{
		Type:       StatusType(f.Kind),
		ComputedAt: pos.Timestamp,
		AddressID:  f.AddressID,
	}
	if f.Kind == KindCustom {
		s.Label = f.Name
	}
	return s
}

// orderedCustom sorts a copy by registration time, then address id.
func orderedCustom(customs []Fence) []Fence {
	if len(customs) < 2 {
		return customs
	}
	sorted := slices.Clone(customs)
	slices.SortStableFunc(sorted, func(a, b Fence) int {
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return compareStrings(a.AddressID.String(), b.AddressID.String())
	})
	return sorted
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// speedKmh converts m/s to km/h. Missing, NaN or negative speed counts as 0.
func speedKmh(mps float64) float64 {
	if math.IsNaN(mps) || math.IsInf(mps, 0) || mps < 0 {
		return 0
	}
	return mps * 3.6
}

// ValidateCoordinates rejects non-finite or out-of-range coordinates.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return dErrors.New(dErrors.CodeValidation, "coordinates must be finite numbers")
	}
	if lat < -90 || lat > 90 {
		return dErrors.New(dErrors.CodeValidation, "latitude must be within [-90, 90]")
	}
	if lon < -180 || lon > 180 {
		return dErrors.New(dErrors.CodeValidation, "longitude must be within [-180, 180]")
	}
	return nil
}

// ValidatePosition checks a device sample before it is classified or stored.
func ValidatePosition(pos Position) error {
	if err := ValidateCoordinates(pos.Latitude, pos.Longitude); err != nil {
		return err
	}
	if pos.Timestamp.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "timestamp is required")
	}
	return nil
}
