// Package nearmiss finds past proximity between close friends. A nightly run
// decrypts each eligible pair's history for one day, keeps at most one event
// per pair and commits the whole run at once.
package nearmiss

import (
	"time"

	"github.com/google/uuid"

	"bubble/internal/trust"
	id "bubble/pkg/domain"
)

// eventNamespace scopes deterministic event ids.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("bubble:nearmiss:event"))

// Event records that a pair was within range on RunDate. It carries no
// coordinates.
type Event struct {
	ID               id.EventID `json:"id"`
	RunDate          string     `json:"run_date"`
	UserA            id.UserID  `json:"user_a"`
	UserB            id.UserID  `json:"user_b"`
	ApproxTime       time.Time  `json:"approx_time"`
	DistanceMeters   int        `json:"distance_meters"`
	TimeDeltaMinutes int        `json:"time_delta_minutes"`
	DetectedAt       time.Time  `json:"detected_at"`
	DeliverAfter     time.Time  `json:"deliver_after"`
	Delivered        bool       `json:"delivered"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
}

// Pair returns the event's canonical pair.
func (e Event) Pair() trust.Pair {
	return trust.NewPair(e.UserA, e.UserB)
}

// EventID derives the id for a pair's event on runDate. Reruns of the same
// date produce the same id.
func EventID(runDate string, pair trust.Pair) id.EventID {
	return id.EventID(uuid.NewSHA1(eventNamespace, []byte(runDate+"|"+pair.A.String()+"|"+pair.B.String())))
}

// RunSummary is the bookkeeping row committed with a run's events.
type RunSummary struct {
	RunDate     string
	CommittedAt time.Time
	Pairs       int
	Events      int
	Corrupt     int
}
