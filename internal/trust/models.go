// Package trust decides which friend pairs may be compared for proximity.
package trust

import (
	"time"

	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
)

const (
	MinTrustLevel = 1
	MaxTrustLevel = 5
	// CloseFriendLevel is the level that unlocks proximity detection.
	CloseFriendLevel = 5
)

// Edge is a trust rating between two users. By default it is read as an
// unordered relationship; with mutual trust enabled UserA is the rater.
type Edge struct {
	UserA         id.UserID
	UserB         id.UserID
	Level         int
	EstablishedAt time.Time
}

// Validate checks the edge invariants.
func (e Edge) Validate() error {
	if e.UserA.IsNil() || e.UserB.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "both users are required")
	}
	if e.UserA == e.UserB {
		return dErrors.New(dErrors.CodeValidation, "a user cannot rate themselves")
	}
	if e.Level < MinTrustLevel || e.Level > MaxTrustLevel {
		return dErrors.New(dErrors.CodeValidation, "trust level must be within 1..5")
	}
	return nil
}

// Pair is an unordered user pair in canonical form: A sorts before B.
type Pair struct {
	A id.UserID
	B id.UserID
}

// NewPair canonicalises (x, y) so NewPair(x, y) == NewPair(y, x).
func NewPair(x, y id.UserID) Pair {
	if y.Less(x) {
		return Pair{A: y, B: x}
	}
	return Pair{A: x, B: y}
}

// Other returns the member of the pair that is not u.
func (p Pair) Other(u id.UserID) id.UserID {
	if p.A == u {
		return p.B
	}
	return p.A
}

// Contains reports whether u is a member of the pair.
func (p Pair) Contains(u id.UserID) bool {
	return p.A == u || p.B == u
}

func (p Pair) String() string {
	return p.A.String() + ":" + p.B.String()
}
