// Package scheduler holds the pure scheduling decisions: interval overlap, the current
// timetable slot and the room status table.
package scheduler

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End) owned by a booking.
type Interval struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval has a positive duration.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps reports whether two half-open intervals share at least one instant.
// Touching endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// overlapsByCases is the three-case formulation: b starts inside a, b ends inside a,
// or b encloses a.
func overlapsByCases(a, b Interval) bool {
	startsInside := !b.Start.Before(a.Start) && b.Start.Before(a.End)
	endsInside := b.End.After(a.Start) && !b.End.After(a.End)
	encloses := !b.Start.After(a.Start) && !b.End.Before(a.End)
	return startsInside || endsInside || encloses
}

// FindConflict returns the existing interval that overlaps candidate, preferring the
// earliest start and then the smallest ID so the answer does not depend on input order.
func FindConflict(existing []Interval, candidate Interval) (Interval, bool) {
	var matches []Interval
	for _, interval := range existing {
		if interval.ID != "" && interval.ID == candidate.ID {
			continue
		}
		if Overlaps(interval, candidate) {
			matches = append(matches, interval)
		}
	}
	if len(matches) == 0 {
		return Interval{}, false
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Start.Equal(matches[j].Start) {
			return matches[i].Start.Before(matches[j].Start)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches[0], true
}
