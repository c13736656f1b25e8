// Package history keeps each user's recent positions sealed at rest with a
// fixed retention. Decrypted points are only produced for the near-miss batch.
package history

import (
	"time"

	id "bubble/pkg/domain"
)

// DefaultRetention is how long a sealed record lives after insertion.
const DefaultRetention = 7 * 24 * time.Hour

// Record is a sealed position as persisted. Nothing in it reveals where or
// when the sample was taken beyond the insertion time.
type Record struct {
	ID         id.RecordID
	UserID     id.UserID
	KeyRef     string
	Ciphertext []byte
	InsertedAt time.Time
	ExpiresAt  time.Time
	// Corrupt is set by stores that found the record but could not read its
	// metadata. Such records are counted and skipped, never returned as points.
	Corrupt bool
}

// IsExpired reports whether the record is due for purge at now.
func (r *Record) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Point is a decrypted position. It must not be logged or persisted.
type Point struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Speed     float64
	Timestamp time.Time
}

// Series is one user's decrypted points for a window, sorted by timestamp,
// plus the number of records skipped because they could not be opened.
type Series struct {
	Points  []Point
	Corrupt int
}

// Wipe zeroes the decrypted points in place.
func (s *Series) Wipe() {
	clear(s.Points)
	s.Points = nil
}
