package grid

import (
	"errors"
	"regexp"
	"time"

	appLog "shiftsync/internal/log"
	"shiftsync/internal/model"
	"shiftsync/internal/timeparse"
)

// Accumulator tracks the identity keys seen so far within one scraping
// session. Adjacent month views overlap by a few boundary days, so the same
// shift can appear on two consecutive pages; the accumulator makes the
// builder drop repeats while staying an explicit value rather than ambient
// state.
type Accumulator struct {
	seen map[string]struct{}
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[string]struct{})}
}

// Add records a key, reporting whether it was previously unseen.
func (a *Accumulator) Add(key string) bool {
	if _, dup := a.seen[key]; dup {
		return false
	}
	a.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct keys recorded.
func (a *Accumulator) Len() int { return len(a.seen) }

// PageResult holds the previously-unseen shifts contributed by one month
// page. A page where both lists are empty signals the end of available
// data; the caller stops paginating.
type PageResult struct {
	Open   []model.CandidateShift
	Picked []model.CandidateShift

	// SkippedRows counts row blocks dropped because no header sits above
	// them. Nonzero values are a data-quality signal, not a failure.
	SkippedRows int
}

// Empty reports whether the page contributed nothing new.
func (r PageResult) Empty() bool {
	return len(r.Open) == 0 && len(r.Picked) == 0
}

// BuildPage converts one snapshot into candidate shifts, correlating rows
// to dates by offset, classifying each cell, parsing time ranges and
// deduplicating against acc. ref supplies the year for header dates that
// omit one.
//
// A snapshot with no headers is a layout failure: logged, and the whole
// page degrades to empty rather than aborting the run.
func BuildPage(s Snapshot, namePattern *regexp.Regexp, ref time.Time, acc *Accumulator) PageResult {
	var res PageResult

	if len(s.Headers) == 0 {
		appLog.Error("grid: no week headers in snapshot, skipping page", errors.New("no headers"),
			"rows", len(s.Rows))
		return res
	}

	for _, row := range s.Rows {
		header, ok := HeaderAbove(row.Offset, s.Headers)
		if !ok {
			appLog.Warn("grid: row above every header, skipping",
				"offset", row.Offset, "assignment", row.Assignment)
			res.SkippedRows++
			continue
		}

		for col, cell := range row.Cells {
			if col >= len(header.Dates) {
				break
			}

			class := Classify(cell, namePattern)
			if class != Open && class != PickedByMe {
				continue
			}

			day, ok := timeparse.ParseDate(header.Dates[col], ref)
			if !ok {
				appLog.Warn("grid: unparseable column date, skipping cell",
					"date_text", header.Dates[col], "assignment", row.Assignment)
				continue
			}

			shift := buildShift(row.Assignment, cell, day)
			if !acc.Add(shift.Key()) {
				continue
			}

			if class == PickedByMe {
				res.Picked = append(res.Picked, shift)
			} else {
				res.Open = append(res.Open, shift)
			}
		}
	}

	return res
}

// buildShift assembles a CandidateShift from a classified cell. Shifts with
// unparseable time text still come through, carrying a full-day placeholder
// range; downstream filtering and diffing handle them like any other shift.
func buildShift(assignment string, cell Cell, day time.Time) model.CandidateShift {
	start, end, ok := timeparse.ParseTimeRange(cell.Times, day)
	if !ok {
		if cell.Times != "" {
			appLog.Warn("grid: unparseable time range, using full-day placeholder",
				"times_text", cell.Times, "assignment", assignment, "date", day.Format(model.DateLayout))
		}
		start, end = timeparse.FullDayRange(day)
	}

	return model.CandidateShift{
		Date:       day.Format(model.DateLayout),
		Start:      start,
		End:        end,
		Assignment: assignment,
		Label:      CellLabel(cell.Text),
	}
}
