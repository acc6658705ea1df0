// Package filter decides which open shifts the user could actually work,
// given the shifts they already hold.
package filter

import (
	"time"

	"shiftsync/internal/model"
)

// Interval is a committed block of working time. Both the personal feed's
// scheduled shifts and any shifts already picked up this run count.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Committed builds the committed-interval set from the feed shifts and the
// picked-up candidates of the current run.
func Committed(scheduled []model.ScheduledShift, picked []model.CandidateShift) []Interval {
	out := make([]Interval, 0, len(scheduled)+len(picked))
	for _, s := range scheduled {
		out = append(out, Interval{Start: s.Start, End: s.End})
	}
	for _, p := range picked {
		out = append(out, Interval{Start: p.Start, End: p.End})
	}
	return out
}

// IsEligible reports whether the candidate conflicts with none of the
// committed intervals. A candidate conflicts when it overlaps a committed
// shift, or when the gap between the two is shorter than minRest.
//
// Intervals are half-open: a shift ending exactly when another starts does
// not overlap it, so with minRest zero back-to-back shifts are workable.
func IsEligible(cand model.CandidateShift, committed []Interval, minRest time.Duration) bool {
	for _, c := range committed {
		if conflicts(cand.Start, cand.End, c, minRest) {
			return false
		}
	}
	return true
}

func conflicts(start, end time.Time, c Interval, minRest time.Duration) bool {
	// Half-open overlap.
	if start.Before(c.End) && c.Start.Before(end) {
		return true
	}

	// Candidate ends before the committed shift starts: require rest before it.
	if !end.After(c.Start) && c.Start.Sub(end) < minRest {
		return true
	}

	// Committed shift ends before the candidate starts: require rest after it.
	if !c.End.After(start) && start.Sub(c.End) < minRest {
		return true
	}

	return false
}
