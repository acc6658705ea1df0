// Package grid turns positioned page snapshots of the scheduling grid into
// typed shift records. The grid is virtualized and absolutely positioned:
// week header blocks and assignment row blocks each carry a vertical offset,
// and a row belongs to the nearest header at or above it. Offsets are
// treated as opaque ordering keys so none of this needs a renderer.
package grid

// HeaderBlock is one week header: a vertical offset plus the rendered date
// text for each of its seven weekday columns.
type HeaderBlock struct {
	Offset int      `json:"offset"`
	Dates  []string `json:"dates"` // raw date text, e.g. "02/23/2026", one per column
}

// Cell is one day cell within an assignment row. Text is the full rendered
// cell text (first line is the slot label); Times is the inline time-range
// text when the viewer's show-times setting is on. PendingChange mirrors
// the markup flag the viewer sets once someone has claimed the slot.
type Cell struct {
	Text          string `json:"text"`
	Times         string `json:"times"`
	PendingChange bool   `json:"pending_change"`
}

// Row is one assignment row block: a vertical offset, the assignment label
// from the row's left column, and up to seven day cells.
type Row struct {
	Offset     int    `json:"offset"`
	Assignment string `json:"assignment"`
	Cells      []Cell `json:"cells"`
}

// Snapshot is everything extracted from one rendered month view.
type Snapshot struct {
	Headers []HeaderBlock `json:"headers"`
	Rows    []Row         `json:"rows"`
}
