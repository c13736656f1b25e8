package trust

import (
	"slices"
	"strings"

	id "bubble/pkg/domain"
)

// Gate filters the trust graph down to pairs eligible for proximity checks.
// It is pure and safe for concurrent use.
type Gate struct {
	minLevel int
	mutual   bool
}

type GateOption func(*Gate)

// WithMinLevel overrides CloseFriendLevel as the eligibility threshold.
func WithMinLevel(level int) GateOption {
	return func(g *Gate) {
		if level >= MinTrustLevel && level <= MaxTrustLevel {
			g.minLevel = level
		}
	}
}

// WithMutualTrust requires both directed ratings to meet the threshold.
func WithMutualTrust() GateOption {
	return func(g *Gate) {
		g.mutual = true
	}
}

// NewGate creates a Gate with the close-friend threshold.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{minLevel: CloseFriendLevel}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

const (
	forward  uint8 = 1 << iota // canonical A rated B
	backward                   // canonical B rated A
)

// EligiblePairs returns the canonical pairs whose trust meets the threshold,
// deduplicated and sorted. Self edges and nil users are dropped.
func (g *Gate) EligiblePairs(edges []Edge) []Pair {
	seen := make(map[Pair]uint8, len(edges))
	for _, e := range edges {
		if e.Level < g.minLevel || e.UserA == e.UserB || e.UserA.IsNil() || e.UserB.IsNil() {
			continue
		}
		p := NewPair(e.UserA, e.UserB)
		dir := forward
		if p.A != e.UserA {
			dir = backward
		}
		seen[p] |= dir
	}

	pairs := make([]Pair, 0, len(seen))
	for p, dirs := range seen {
		if g.mutual && dirs != forward|backward {
			continue
		}
		pairs = append(pairs, p)
	}
	// Filtering above is a single pass over edges. The sort only fixes the
	// order callers iterate in, so run logs and event order are stable; it
	// costs O(P log P) over the surviving pairs.
	slices.SortFunc(pairs, func(x, y Pair) int {
		if c := strings.Compare(x.A.String(), y.A.String()); c != 0 {
			return c
		}
		return strings.Compare(x.B.String(), y.B.String())
	})
	return pairs
}

// CloseFriends returns the users paired with user under the same rules as
// EligiblePairs.
func (g *Gate) CloseFriends(edges []Edge, user id.UserID) []id.UserID {
	var friends []id.UserID
	for _, p := range g.EligiblePairs(edges) {
		if p.Contains(user) {
			friends = append(friends, p.Other(user))
		}
	}
	return friends
}
