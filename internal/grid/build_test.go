package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRef = time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

func weekHeader(offset int, firstDay int) HeaderBlock {
	dates := make([]string, 7)
	for i := range dates {
		d := time.Date(2026, time.February, firstDay+i, 0, 0, 0, 0, time.UTC)
		dates[i] = d.Format("01/02/2006")
	}
	return HeaderBlock{Offset: offset, Dates: dates}
}

func TestBuildPageOpenShift(t *testing.T) {
	snap := Snapshot{
		Headers: []HeaderBlock{weekHeader(0, 15)}, // Feb 15–21
		Rows: []Row{{
			Offset:     100,
			Assignment: "R15",
			Cells: []Cell{
				{}, {}, {},
				{Text: "OPEN 1\n9:00pm – 7:00am (02/19)", Times: "9:00pm – 7:00am (02/19)"},
				{}, {}, {},
			},
		}},
	}

	res := BuildPage(snap, nil, testRef, NewAccumulator())
	require.Len(t, res.Open, 1)
	assert.Empty(t, res.Picked)

	s := res.Open[0]
	assert.Equal(t, "2026-02-18", s.Date)
	assert.Equal(t, "R15", s.Assignment)
	assert.Equal(t, "OPEN 1", s.Label)
	assert.Equal(t, "2026-02-18 21:00", s.Start.Format("2006-01-02 15:04"))
	assert.Equal(t, "2026-02-19 07:00", s.End.Format("2006-01-02 15:04"))
}

func TestBuildPagePickedShift(t *testing.T) {
	pattern, err := CompileNamePattern(`jane\s+doe`)
	require.NoError(t, err)

	snap := Snapshot{
		Headers: []HeaderBlock{weekHeader(0, 15)},
		Rows: []Row{{
			Offset:     100,
			Assignment: "A3",
			Cells: []Cell{
				{Text: "OPEN 1 → Jane Doe", Times: "8:00am – 5:00pm", PendingChange: true},
				{Text: "OPEN 1 → John Smith", Times: "8:00am – 5:00pm", PendingChange: true},
			},
		}},
	}

	res := BuildPage(snap, pattern, testRef, NewAccumulator())
	assert.Empty(t, res.Open)
	require.Len(t, res.Picked, 1)
	assert.Equal(t, "OPEN 1 → Jane Doe", res.Picked[0].Label)
}

func TestBuildPageFullDayPlaceholder(t *testing.T) {
	snap := Snapshot{
		Headers: []HeaderBlock{weekHeader(0, 15)},
		Rows: []Row{{
			Offset:     100,
			Assignment: "T1",
			Cells:      []Cell{{Text: "OPEN 2"}},
		}},
	}

	res := BuildPage(snap, nil, testRef, NewAccumulator())
	require.Len(t, res.Open, 1)
	assert.Equal(t, "2026-02-15 00:00", res.Open[0].Start.Format("2006-01-02 15:04"))
	assert.Equal(t, "2026-02-15 23:59", res.Open[0].End.Format("2006-01-02 15:04"))
}

func TestBuildPageDeduplicatesAcrossPages(t *testing.T) {
	snap := Snapshot{
		Headers: []HeaderBlock{weekHeader(0, 15)},
		Rows: []Row{{
			Offset:     100,
			Assignment: "R15",
			Cells:      []Cell{{Text: "OPEN 1", Times: "8:00am – 5:00pm"}},
		}},
	}

	acc := NewAccumulator()

	first := BuildPage(snap, nil, testRef, acc)
	require.Len(t, first.Open, 1)
	assert.False(t, first.Empty())

	// The overlapping month view renders the same shift again.
	second := BuildPage(snap, nil, testRef, acc)
	assert.Empty(t, second.Open)
	assert.True(t, second.Empty(), "a page with nothing new ends pagination")
	assert.Equal(t, 1, acc.Len())
}

func TestBuildPageDistinctLabelsAreDistinctShifts(t *testing.T) {
	// Two open slots for the same assignment and time differ only by label.
	snap := Snapshot{
		Headers: []HeaderBlock{weekHeader(0, 15)},
		Rows: []Row{{
			Offset:     100,
			Assignment: "R15",
			Cells: []Cell{{Text: "OPEN 1", Times: "8:00am – 5:00pm"}},
		}, {
			Offset:     140,
			Assignment: "R15",
			Cells: []Cell{{Text: "OPEN 2", Times: "8:00am – 5:00pm"}},
		}},
	}

	res := BuildPage(snap, nil, testRef, NewAccumulator())
	assert.Len(t, res.Open, 2)
}

func TestBuildPageSkipsRowAboveAllHeaders(t *testing.T) {
	snap := Snapshot{
		Headers: []HeaderBlock{weekHeader(200, 15)},
		Rows: []Row{{
			Offset:     100, // above the only header
			Assignment: "R15",
			Cells:      []Cell{{Text: "OPEN 1", Times: "8:00am – 5:00pm"}},
		}},
	}

	res := BuildPage(snap, nil, testRef, NewAccumulator())
	assert.Empty(t, res.Open)
	assert.Equal(t, 1, res.SkippedRows)
}

func TestBuildPageNoHeadersDegradesToEmpty(t *testing.T) {
	snap := Snapshot{
		Rows: []Row{{
			Offset:     100,
			Assignment: "R15",
			Cells:      []Cell{{Text: "OPEN 1"}},
		}},
	}

	res := BuildPage(snap, nil, testRef, NewAccumulator())
	assert.True(t, res.Empty())
}

func TestBuildPageIgnoresCellsBeyondDateColumns(t *testing.T) {
	header := weekHeader(0, 15)
	header.Dates = header.Dates[:2]

	snap := Snapshot{
		Headers: []HeaderBlock{header},
		Rows: []Row{{
			Offset:     100,
			Assignment: "R15",
			Cells: []Cell{
				{Text: "OPEN 1", Times: "8:00am – 5:00pm"},
				{Text: "OPEN 1", Times: "8:00am – 5:00pm"},
				{Text: "OPEN 1", Times: "8:00am – 5:00pm"}, // no matching column
			},
		}},
	}

	res := BuildPage(snap, nil, testRef, NewAccumulator())
	assert.Len(t, res.Open, 2)
}
