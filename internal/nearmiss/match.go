package nearmiss

import (
	"slices"
	"time"

	"bubble/internal/geofence"
	"bubble/internal/history"
)

// MatchConfig bounds what counts as a near-miss.
type MatchConfig struct {
	RadiusMeters float64
	TimeWindow   time.Duration
}

// DefaultMatchConfig is 50 m within 30 minutes.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{RadiusMeters: 50, TimeWindow: 30 * time.Minute}
}

// Proximity is the qualifying sample pair chosen for an event.
type Proximity struct {
	// ApproxTime is the later of the two sample timestamps.
	ApproxTime     time.Time
	DistanceMeters float64
	TimeDelta      time.Duration
	earlier        time.Time
}

// better orders candidates: earlier ApproxTime, then shorter distance, then
// earlier counterpart sample.
func (p Proximity) better(o Proximity) bool {
	if c := p.ApproxTime.Compare(o.ApproxTime); c != 0 {
		return c < 0
	}
	if p.DistanceMeters != o.DistanceMeters {
		return p.DistanceMeters < o.DistanceMeters
	}
	return p.earlier.Before(o.earlier)
}

// Match returns the earliest qualifying sample pair between a and b. Both
// series are expected sorted by timestamp; unsorted input is sorted on a
// copy. The result does not depend on argument order.
func Match(a, b []history.Point, cfg MatchConfig) (Proximity, bool) {
	return match(a, b, cfg, func(time.Time) bool { return true })
}

// MatchInWindow is Match restricted to pairs whose ApproxTime falls in
// [start, end). Samples before start still pair with later ones, so a
// near-miss spanning start is found by the window that owns its ApproxTime.
func MatchInWindow(a, b []history.Point, cfg MatchConfig, start, end time.Time) (Proximity, bool) {
	return match(a, b, cfg, func(t time.Time) bool {
		return !t.Before(start) && t.Before(end)
	})
}

func match(a, b []history.Point, cfg MatchConfig, owns func(approx time.Time) bool) (Proximity, bool) {
	a, b = sortedPoints(a), sortedPoints(b)

	var (
		best  Proximity
		found bool
		lo    int
	)
	for _, pa := range a {
		// Every later candidate has ApproxTime >= pa.Timestamp.
		if found && pa.Timestamp.After(best.ApproxTime) {
			break
		}
		windowStart := pa.Timestamp.Add(-cfg.TimeWindow)
		for lo < len(b) && b[lo].Timestamp.Before(windowStart) {
			lo++
		}
		windowEnd := pa.Timestamp.Add(cfg.TimeWindow)
		for j := lo; j < len(b) && !b[j].Timestamp.After(windowEnd); j++ {
			pb := b[j]
			d := geofence.Distance(pa.Latitude, pa.Longitude, pb.Latitude, pb.Longitude)
			// Written so that a NaN distance never qualifies.
			if !(d <= cfg.RadiusMeters) {
				continue
			}
			cand := newProximity(pa.Timestamp, pb.Timestamp, d)
			if !owns(cand.ApproxTime) {
				continue
			}
			if !found || cand.better(best) {
				best, found = cand, true
			}
		}
	}
	return best, found
}

func newProximity(ta, tb time.Time, d float64) Proximity {
	later, earlier := ta, tb
	if tb.After(ta) {
		later, earlier = tb, ta
	}
	return Proximity{
		ApproxTime:     later,
		DistanceMeters: d,
		TimeDelta:      later.Sub(earlier),
		earlier:        earlier,
	}
}

func sortedPoints(points []history.Point) []history.Point {
	byTime := func(x, y history.Point) int { return x.Timestamp.Compare(y.Timestamp) }
	if slices.IsSortedFunc(points, byTime) {
		return points
	}
	cp := slices.Clone(points)
	slices.SortStableFunc(cp, byTime)
	return cp
}
