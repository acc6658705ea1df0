package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftsync/internal/grid"
	"shiftsync/internal/model"
	"shiftsync/internal/state"
)

type fakeFeed struct {
	shifts []model.ScheduledShift
	err    error
}

func (f *fakeFeed) CommittedShifts(ctx context.Context) ([]model.ScheduledShift, error) {
	return f.shifts, f.err
}

type fakeGrid struct {
	pages   []grid.Snapshot
	visited int
	err     error
}

func (g *fakeGrid) Visit(ctx context.Context, visit func(page int, snap grid.Snapshot) (bool, error)) error {
	if g.err != nil {
		return g.err
	}
	for i, snap := range g.pages {
		g.visited++
		more, err := visit(i+1, snap)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

type fakeCal struct {
	nextID  int
	created map[string]model.Category // event ID -> category
	deleted []string
}

func newFakeCal() *fakeCal {
	return &fakeCal{created: make(map[string]model.Category)}
}

func (c *fakeCal) CreateEvent(ctx context.Context, shift model.CandidateShift, cat model.Category) (string, error) {
	c.nextID++
	id := fmt.Sprintf("ev-%d", c.nextID)
	c.created[id] = cat
	return id, nil
}

func (c *fakeCal) DeleteEvent(ctx context.Context, eventID string) error {
	c.deleted = append(c.deleted, eventID)
	return nil
}

// febWeek is a header block for the week of Feb 15-21, 2026.
func febWeek(offset int) grid.HeaderBlock {
	return grid.HeaderBlock{
		Offset: offset,
		Dates: []string{
			"02/15/2026", "02/16/2026", "02/17/2026", "02/18/2026",
			"02/19/2026", "02/20/2026", "02/21/2026",
		},
	}
}

// cellAt builds a seven-cell row with one populated cell.
func cellAt(col int, cell grid.Cell) []grid.Cell {
	cells := make([]grid.Cell, 7)
	cells[col] = cell
	return cells
}

func baseOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		StatePath: filepath.Join(t.TempDir(), "state.json"),
		MinRest:   8 * time.Hour,
		Enabled: map[model.Category]bool{
			model.CategoryOpen:   true,
			model.CategoryPicked: true,
		},
		Now: func() time.Time { return time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC) },
	}
}

func TestRunOverlappingOpenShiftNotSynced(t *testing.T) {
	feed := &fakeFeed{shifts: []model.ScheduledShift{{
		Date:       "2026-02-18",
		Start:      time.Date(2026, 2, 18, 19, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 2, 19, 7, 0, 0, 0, time.UTC),
		Assignment: "R15",
	}}}

	// The same night shift is also posted as open on another assignment.
	g := &fakeGrid{pages: []grid.Snapshot{{
		Headers: []grid.HeaderBlock{febWeek(0)},
		Rows: []grid.Row{{
			Offset:     100,
			Assignment: "R20",
			Cells: cellAt(3, grid.Cell{
				Text:  "OPEN 1",
				Times: "7:00 PM - 7:00 AM (02/19)",
			}),
		}},
	}}}

	cal := newFakeCal()
	opts := baseOptions(t)

	summary, err := Run(context.Background(), Deps{Feed: feed, Grid: g, Calendar: cal}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ScrapedOpen)
	assert.Equal(t, 0, summary.EligibleOpen)
	assert.Empty(t, cal.created)
	assert.False(t, summary.Changed())

	st := state.Load(opts.StatePath)
	require.NotNil(t, st.LastRun)
	assert.Zero(t, st.Total())
}

func TestRunCreatesAndIsIdempotent(t *testing.T) {
	feed := &fakeFeed{shifts: []model.ScheduledShift{{
		Date:       "2026-02-10",
		Start:      time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 2, 10, 16, 0, 0, 0, time.UTC),
		Assignment: "R15",
	}}}

	page := grid.Snapshot{
		Headers: []grid.HeaderBlock{febWeek(0)},
		Rows: []grid.Row{
			{
				Offset:     100,
				Assignment: "R20",
				Cells: cellAt(3, grid.Cell{
					Text:  "OPEN 2",
					Times: "7:00 PM - 7:00 AM (02/19)",
				}),
			},
			{
				Offset:     200,
				Assignment: "R21",
				Cells: cellAt(2, grid.Cell{
					Text:          "OPEN 1\nSmith, Pat",
					Times:         "8:00 AM - 4:00 PM",
					PendingChange: true,
				}),
			},
		},
	}

	cal := newFakeCal()
	opts := baseOptions(t)
	opts.NamePattern = regexp.MustCompile(`(?i)smith`)

	summary, err := Run(context.Background(), Deps{
		Feed: feed, Grid: &fakeGrid{pages: []grid.Snapshot{page}}, Calendar: cal,
	}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Categories[model.CategoryOpen].Added)
	assert.Equal(t, 1, summary.Categories[model.CategoryPicked].Added)
	assert.True(t, summary.Changed())
	assert.Len(t, cal.created, 2)

	st := state.Load(opts.StatePath)
	require.Len(t, st.Open, 1)
	require.Len(t, st.Picked, 1)
	firstOpenID := st.Open[0].EventID

	// Same inputs again: nothing to do.
	summary, err = Run(context.Background(), Deps{
		Feed: feed, Grid: &fakeGrid{pages: []grid.Snapshot{page}}, Calendar: cal,
	}, opts)
	require.NoError(t, err)

	assert.False(t, summary.Changed())
	assert.Equal(t, 1, summary.Categories[model.CategoryOpen].Kept)
	assert.Len(t, cal.created, 2)
	assert.Empty(t, cal.deleted)

	st = state.Load(opts.StatePath)
	require.Len(t, st.Open, 1)
	assert.Equal(t, firstOpenID, st.Open[0].EventID)
}

func TestRunRemovesVanishedShift(t *testing.T) {
	feed := &fakeFeed{}
	page := grid.Snapshot{
		Headers: []grid.HeaderBlock{febWeek(0)},
		Rows: []grid.Row{{
			Offset:     100,
			Assignment: "R20",
			Cells: cellAt(3, grid.Cell{
				Text:  "OPEN 1",
				Times: "7:00 AM - 3:00 PM",
			}),
		}},
	}

	cal := newFakeCal()
	opts := baseOptions(t)

	_, err := Run(context.Background(), Deps{
		Feed: feed, Grid: &fakeGrid{pages: []grid.Snapshot{page}}, Calendar: cal,
	}, opts)
	require.NoError(t, err)

	st := state.Load(opts.StatePath)
	require.Len(t, st.Open, 1)
	eventID := st.Open[0].EventID

	// The shift is gone from the grid on the next run.
	empty := grid.Snapshot{Headers: []grid.HeaderBlock{febWeek(0)}}
	summary, err := Run(context.Background(), Deps{
		Feed: feed, Grid: &fakeGrid{pages: []grid.Snapshot{empty}}, Calendar: cal,
	}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Categories[model.CategoryOpen].Removed)
	assert.Equal(t, []string{eventID}, cal.deleted)
	assert.Zero(t, state.Load(opts.StatePath).Total())
}

func TestRunStopsPaginationOnEmptyPage(t *testing.T) {
	page := grid.Snapshot{
		Headers: []grid.HeaderBlock{febWeek(0)},
		Rows: []grid.Row{{
			Offset:     100,
			Assignment: "R20",
			Cells: cellAt(3, grid.Cell{
				Text:  "OPEN 1",
				Times: "7:00 AM - 3:00 PM",
			}),
		}},
	}

	// Page two repeats page one; deduplication makes it contribute nothing,
	// so page three is never visited.
	g := &fakeGrid{pages: []grid.Snapshot{page, page, page}}
	cal := newFakeCal()
	opts := baseOptions(t)

	summary, err := Run(context.Background(), Deps{Feed: &fakeFeed{}, Grid: g, Calendar: cal}, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, g.visited)
	assert.Equal(t, 1, summary.ScrapedOpen)
	assert.Len(t, cal.created, 1)
}

func TestRunFeedFailureLeavesStateUntouched(t *testing.T) {
	opts := baseOptions(t)
	deps := Deps{
		Feed:     &fakeFeed{err: errors.New("feed down")},
		Grid:     &fakeGrid{},
		Calendar: newFakeCal(),
	}

	_, err := Run(context.Background(), deps, opts)
	require.Error(t, err)

	_, statErr := os.Stat(opts.StatePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunGridFailureLeavesStateUntouched(t *testing.T) {
	opts := baseOptions(t)
	deps := Deps{
		Feed:     &fakeFeed{},
		Grid:     &fakeGrid{err: errors.New("browser crashed")},
		Calendar: newFakeCal(),
	}

	_, err := Run(context.Background(), deps, opts)
	require.Error(t, err)

	_, statErr := os.Stat(opts.StatePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunDisabledCategoryTearsDown(t *testing.T) {
	feed := &fakeFeed{}
	page := grid.Snapshot{
		Headers: []grid.HeaderBlock{febWeek(0)},
		Rows: []grid.Row{{
			Offset:     100,
			Assignment: "R20",
			Cells: cellAt(3, grid.Cell{
				Text:  "OPEN 1",
				Times: "7:00 AM - 3:00 PM",
			}),
		}},
	}

	cal := newFakeCal()
	opts := baseOptions(t)

	_, err := Run(context.Background(), Deps{
		Feed: feed, Grid: &fakeGrid{pages: []grid.Snapshot{page}}, Calendar: cal,
	}, opts)
	require.NoError(t, err)
	require.Len(t, state.Load(opts.StatePath).Open, 1)

	// Turning the category off removes its events even though the shift is
	// still on the grid.
	opts.Enabled[model.CategoryOpen] = false
	summary, err := Run(context.Background(), Deps{
		Feed: feed, Grid: &fakeGrid{pages: []grid.Snapshot{page}}, Calendar: cal,
	}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Categories[model.CategoryOpen].Removed)
	assert.Len(t, cal.deleted, 1)
	assert.Zero(t, state.Load(opts.StatePath).Total())
}

func TestRunPickedShiftBlocksOverlappingOpen(t *testing.T) {
	// No feed commitments at all; the conflict comes from a shift picked up
	// on the grid itself.
	page := grid.Snapshot{
		Headers: []grid.HeaderBlock{febWeek(0)},
		Rows: []grid.Row{
			{
				Offset:     100,
				Assignment: "R20",
				Cells: cellAt(3, grid.Cell{
					Text:          "OPEN 1\nSmith, Pat",
					Times:         "7:00 AM - 7:00 PM",
					PendingChange: true,
				}),
			},
			{
				Offset:     200,
				Assignment: "R21",
				Cells: cellAt(3, grid.Cell{
					Text:  "OPEN 1",
					Times: "9:00 AM - 5:00 PM",
				}),
			},
		},
	}

	cal := newFakeCal()
	opts := baseOptions(t)
	opts.NamePattern = regexp.MustCompile(`(?i)smith`)

	summary, err := Run(context.Background(), Deps{
		Feed: &fakeFeed{}, Grid: &fakeGrid{pages: []grid.Snapshot{page}}, Calendar: cal,
	}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ScrapedOpen)
	assert.Equal(t, 1, summary.ScrapedPicked)
	assert.Equal(t, 0, summary.EligibleOpen)
	assert.Equal(t, 1, summary.Categories[model.CategoryPicked].Added)
	assert.Equal(t, 0, summary.Categories[model.CategoryOpen].Added)
}
