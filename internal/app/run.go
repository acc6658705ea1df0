// Package app wires the pipeline together: feed, scrape, filter, diff,
// apply, persist. Collaborators are interfaces so the whole run is
// exercisable in tests without a browser or network.
package app

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"shiftsync/internal/filter"
	"shiftsync/internal/grid"
	appLog "shiftsync/internal/log"
	"shiftsync/internal/model"
	"shiftsync/internal/state"
	"shiftsync/internal/sync"
)

// FeedSource supplies the user's committed shifts.
type FeedSource interface {
	CommittedShifts(ctx context.Context) ([]model.ScheduledShift, error)
}

// GridSource runs a scraping session, handing each month's snapshot to
// visit until visit reports it is done or the source runs out of months.
type GridSource interface {
	Visit(ctx context.Context, visit func(page int, snap grid.Snapshot) (more bool, err error)) error
}

// Deps are the run's external collaborators.
type Deps struct {
	Feed     FeedSource
	Grid     GridSource
	Calendar sync.Calendar
}

// Options are the per-run settings derived from config.
type Options struct {
	StatePath   string
	MinRest     time.Duration
	NamePattern *regexp.Regexp // nil disables picked-shift detection
	Enabled     map[model.Category]bool

	// Now is the reference clock; tests pin it.
	Now func() time.Time
}

// CategoryResult summarizes one category's reconciliation.
type CategoryResult struct {
	Added, Removed, Kept int
}

// Summary is the outcome of one run.
type Summary struct {
	Categories map[model.Category]CategoryResult

	ScrapedOpen   int
	ScrapedPicked int
	EligibleOpen  int
	Committed     int
}

// Changed reports whether any remote mutation happened.
func (s Summary) Changed() bool {
	for _, r := range s.Categories {
		if r.Added > 0 || r.Removed > 0 {
			return true
		}
	}
	return false
}

// Run executes one full synchronization pass. It is strictly sequential:
// every stage needs the previous stage's complete output. State is written
// once at the end of a successful pass; collaborator failures before the
// apply step leave the previous state untouched.
func Run(ctx context.Context, deps Deps, opts Options) (Summary, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now()
	summary := Summary{Categories: make(map[model.Category]CategoryResult)}

	prev := state.Load(opts.StatePath)

	// Committed shifts from the personal feed.
	scheduled, err := deps.Feed.CommittedShifts(ctx)
	if err != nil {
		return summary, fmt.Errorf("app: fetch committed shifts: %w", err)
	}
	appLog.Info("app: committed shifts fetched", "count", len(scheduled))

	// Candidate shifts from the grid, month by month until a page adds
	// nothing new.
	open, picked, err := scrapeCandidates(ctx, deps.Grid, opts.NamePattern, now)
	if err != nil {
		return summary, fmt.Errorf("app: scrape grid: %w", err)
	}
	summary.ScrapedOpen = len(open)
	summary.ScrapedPicked = len(picked)

	// Availability: an open shift must not conflict with anything the user
	// already holds, including shifts picked up on the grid itself.
	committed := filter.Committed(scheduled, picked)
	summary.Committed = len(committed)

	eligible := make([]model.CandidateShift, 0, len(open))
	for _, cand := range open {
		if filter.IsEligible(cand, committed, opts.MinRest) {
			eligible = append(eligible, cand)
		} else {
			appLog.Debug("app: open shift filtered out",
				"label", cand.Label, "assignment", cand.Assignment, "date", cand.Date)
		}
	}
	summary.EligibleOpen = len(eligible)
	appLog.Info("app: availability filter",
		"open", len(open), "eligible", len(eligible), "min_rest", opts.MinRest)

	current := map[model.Category][]model.CandidateShift{
		model.CategoryOpen:   eligible,
		model.CategoryPicked: picked,
	}
	for _, s := range scheduled {
		current[model.CategoryScheduled] = append(current[model.CategoryScheduled], model.FromScheduled(s))
	}

	// Diff and apply each category independently; keys are category-local
	// so order does not matter.
	next := &model.SyncState{}
	for _, cat := range model.Categories {
		d := sync.Reconcile(current[cat], prev.ByCategory(cat), opts.Enabled[cat])
		summary.Categories[cat] = CategoryResult{
			Added:   len(d.ToAdd),
			Removed: len(d.ToRemove),
			Kept:    len(d.ToKeep),
		}
		appLog.Info("app: reconciled category", "category", cat,
			"add", len(d.ToAdd), "remove", len(d.ToRemove), "keep", len(d.ToKeep))

		applied, err := sync.Apply(ctx, deps.Calendar, cat, d)
		next.SetCategory(cat, applied)
		if err != nil {
			// Events created before the failure are already on the remote
			// calendar. Persist what we know (unprocessed categories keep
			// their previous entries) so the next run does not re-create
			// them, then fail the run.
			for _, rest := range model.Categories {
				if rest != cat && next.ByCategory(rest) == nil {
					next.SetCategory(rest, prev.ByCategory(rest))
				}
			}
			next.LastRun = prev.LastRun
			if saveErr := state.Save(opts.StatePath, next); saveErr != nil {
				appLog.Error("app: best-effort state save failed", saveErr)
			}
			return summary, err
		}
	}

	next.LastRun = &now
	if err := state.Save(opts.StatePath, next); err != nil {
		return summary, fmt.Errorf("app: persist state: %w", err)
	}

	logSummary(summary, next)
	return summary, nil
}

// scrapeCandidates runs the month pagination loop over the grid source,
// building and deduplicating shifts with a single accumulator that spans
// the whole session.
func scrapeCandidates(ctx context.Context, src GridSource, namePattern *regexp.Regexp, ref time.Time) (open, picked []model.CandidateShift, err error) {
	acc := grid.NewAccumulator()

	err = src.Visit(ctx, func(page int, snap grid.Snapshot) (bool, error) {
		res := grid.BuildPage(snap, namePattern, ref, acc)
		open = append(open, res.Open...)
		picked = append(picked, res.Picked...)

		if res.Empty() {
			appLog.Info("app: month contributed no new shifts, stopping", "page", page)
			return false, nil
		}
		appLog.Info("app: month extracted", "page", page,
			"new_open", len(res.Open), "new_picked", len(res.Picked),
			"total_open", len(open), "total_picked", len(picked))
		return true, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return open, picked, nil
}

func logSummary(s Summary, st *model.SyncState) {
	for _, cat := range model.Categories {
		r := s.Categories[cat]
		appLog.Info("app: category synced", "category", cat,
			"added", r.Added, "removed", r.Removed, "kept", r.Kept)
	}
	appLog.Info("app: sync complete", "total_synced", st.Total())
}
