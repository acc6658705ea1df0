// Package sync computes and applies the minimal calendar mutation set that
// brings the remote calendar in line with the freshly scraped shift state.
package sync

import (
	"shiftsync/internal/model"
)

// Diff partitions one category's shifts into the remote mutations required:
// create events for ToAdd, delete events for ToRemove, leave ToKeep alone.
type Diff struct {
	ToAdd    []model.CandidateShift
	ToRemove []model.SyncedShift
	ToKeep   []model.SyncedShift
}

// Reconcile diffs the current shift set against the previously synced set
// by identity key. It is purely set-based: running it twice over identical
// inputs yields empty ToAdd/ToRemove and a ToKeep covering everything, so
// re-runs are idempotent.
//
// A disabled category tears down cleanly: everything previously synced is
// removed and nothing is added, which guarantees that switching a category
// off clears whatever it had placed on the calendar.
func Reconcile(current []model.CandidateShift, previous []model.SyncedShift, enabled bool) Diff {
	if !enabled {
		return Diff{ToRemove: previous}
	}

	currentKeys := make(map[string]struct{}, len(current))
	for _, s := range current {
		currentKeys[s.Key()] = struct{}{}
	}

	previousKeys := make(map[string]struct{}, len(previous))
	for _, s := range previous {
		previousKeys[s.Key()] = struct{}{}
	}

	var d Diff
	for _, s := range current {
		if _, ok := previousKeys[s.Key()]; !ok {
			d.ToAdd = append(d.ToAdd, s)
		}
	}
	for _, s := range previous {
		if _, ok := currentKeys[s.Key()]; ok {
			d.ToKeep = append(d.ToKeep, s)
		} else {
			d.ToRemove = append(d.ToRemove, s)
		}
	}

	return d
}

// Changed reports whether applying the diff requires any remote mutation.
func (d Diff) Changed() bool {
	return len(d.ToAdd) > 0 || len(d.ToRemove) > 0
}
