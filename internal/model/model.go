package model

import (
	"strings"
	"time"
)

// KeyTimeLayout is the naive local-time layout used in identity keys and in
// the persisted state file. Shift instants carry no zone of their own; the
// whole pipeline operates in the configured grid timezone.
const KeyTimeLayout = "2006-01-02T15:04:05"

// DateLayout is the calendar-day layout used throughout (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Category names one of the three independently synced shift collections.
type Category string

const (
	CategoryOpen      Category = "open"
	CategoryPicked    Category = "picked"
	CategoryScheduled Category = "scheduled"
)

// Categories lists all categories in their canonical processing order.
var Categories = []Category{CategoryOpen, CategoryPicked, CategoryScheduled}

// ScheduledShift is a shift the user is already committed to, as reported by
// the personal feed. Recreated from the feed on every run; never mutated.
type ScheduledShift struct {
	Date       string    // YYYY-MM-DD
	Start      time.Time // naive local instant
	End        time.Time
	Assignment string // e.g. "R15", "A3"
}

// Key returns the identity key (date, start, end, assignment).
func (s ScheduledShift) Key() string {
	return strings.Join([]string{
		s.Date,
		s.Start.Format(KeyTimeLayout),
		s.End.Format(KeyTimeLayout),
		s.Assignment,
	}, "|")
}

// CandidateShift is an open or picked-up shift read from the scheduling
// grid. The display label (e.g. "OPEN 1") is part of the identity so that
// multiple simultaneous open slots for the same assignment stay distinct.
type CandidateShift struct {
	Date       string
	Start      time.Time
	End        time.Time
	Assignment string
	Label      string // e.g. "OPEN 1"
}

// Key returns the identity key (date, start, end, assignment, label).
func (s CandidateShift) Key() string {
	return strings.Join([]string{
		s.Date,
		s.Start.Format(KeyTimeLayout),
		s.End.Format(KeyTimeLayout),
		s.Assignment,
		s.Label,
	}, "|")
}

// FromScheduled converts a feed shift into candidate form (empty label) so
// the scheduled category can flow through the same reconciliation path.
func FromScheduled(s ScheduledShift) CandidateShift {
	return CandidateShift{
		Date:       s.Date,
		Start:      s.Start,
		End:        s.End,
		Assignment: s.Assignment,
	}
}

// SyncedShift is a CandidateShift that has been materialized as a remote
// calendar event. The event ID is not part of the identity key, so identity
// survives event recreation.
type SyncedShift struct {
	CandidateShift
	EventID string
}

// NewSyncedShift records a successful remote create for the given candidate.
func NewSyncedShift(c CandidateShift, eventID string) SyncedShift {
	return SyncedShift{CandidateShift: c, EventID: eventID}
}

// SyncState is the persisted snapshot of what this tool believes exists on
// the remote calendar: one collection per category, identity keys unique
// within each. A missing or corrupt state file is equivalent to the zero
// value.
type SyncState struct {
	LastRun   *time.Time
	Open      []SyncedShift
	Picked    []SyncedShift
	Scheduled []SyncedShift
}

// ByCategory returns the collection for the given category.
func (st *SyncState) ByCategory(cat Category) []SyncedShift {
	switch cat {
	case CategoryOpen:
		return st.Open
	case CategoryPicked:
		return st.Picked
	case CategoryScheduled:
		return st.Scheduled
	}
	return nil
}

// SetCategory replaces the collection for the given category.
func (st *SyncState) SetCategory(cat Category, shifts []SyncedShift) {
	switch cat {
	case CategoryOpen:
		st.Open = shifts
	case CategoryPicked:
		st.Picked = shifts
	case CategoryScheduled:
		st.Scheduled = shifts
	}
}

// Total returns the number of synced shifts across all categories.
func (st *SyncState) Total() int {
	return len(st.Open) + len(st.Picked) + len(st.Scheduled)
}
