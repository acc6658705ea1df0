package sync

import (
	"context"
	"fmt"

	appLog "shiftsync/internal/log"
	"shiftsync/internal/model"
)

// Calendar is the remote calendar collaborator as the engine sees it.
type Calendar interface {
	// CreateEvent materializes a shift as a remote event and returns the
	// remote event ID.
	CreateEvent(ctx context.Context, shift model.CandidateShift, cat model.Category) (string, error)
	// DeleteEvent removes a previously created event.
	DeleteEvent(ctx context.Context, eventID string) error
}

// Apply executes one category's diff against the calendar: deletions first,
// then creations. It returns the category's new synced collection
// (kept entries plus successful creates).
//
// A delete failure usually means the event was already removed by hand; it
// is logged as a warning and the entry is dropped from state regardless. A
// create failure is fatal for the run, but every create that succeeded
// before it is included in the returned collection so the caller can
// persist it and the next run does not duplicate those events.
func Apply(ctx context.Context, cal Calendar, cat model.Category, d Diff) ([]model.SyncedShift, error) {
	next := make([]model.SyncedShift, 0, len(d.ToKeep)+len(d.ToAdd))
	next = append(next, d.ToKeep...)

	for _, s := range d.ToRemove {
		if err := cal.DeleteEvent(ctx, s.EventID); err != nil {
			appLog.Warn("sync: could not delete event, dropping from state anyway",
				"category", cat, "event_id", s.EventID, "key", s.Key(), "err", err)
		} else {
			appLog.Info("sync: removed event",
				"category", cat, "label", s.Label, "assignment", s.Assignment, "date", s.Date)
		}
	}

	for _, s := range d.ToAdd {
		eventID, err := cal.CreateEvent(ctx, s, cat)
		if err != nil {
			return next, fmt.Errorf("sync: create event for %s: %w", s.Key(), err)
		}
		appLog.Info("sync: added event",
			"category", cat, "label", s.Label, "assignment", s.Assignment,
			"date", s.Date, "event_id", eventID)
		next = append(next, model.NewSyncedShift(s, eventID))
	}

	return next, nil
}
