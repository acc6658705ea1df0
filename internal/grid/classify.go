package grid

import (
	"fmt"
	"regexp"
	"strings"
)

// Classification is the outcome of inspecting one grid cell.
type Classification int

const (
	// NotShift means the cell does not hold an open-slot label at all.
	NotShift Classification = iota
	// Open means the slot is unclaimed and available.
	Open
	// PickedByMe means the slot carries a pending change and the cell text
	// matches the user's name pattern.
	PickedByMe
	// TakenByOther means the slot carries a pending change claimed by
	// someone else; these are never surfaced.
	TakenByOther
)

// slot labels look like "OPEN", "OPEN 1", "OPEN 2", ...
var openLabelRe = regexp.MustCompile(`(?i)^OPEN\s*\d*`)

// Classify decides what a cell represents. namePattern may be nil, which
// disables picked-shift detection: every pending-change cell is then
// treated as taken by someone else.
func Classify(cell Cell, namePattern *regexp.Regexp) Classification {
	label := CellLabel(cell.Text)
	if !openLabelRe.MatchString(label) {
		return NotShift
	}

	if cell.PendingChange {
		if namePattern != nil && namePattern.MatchString(cell.Text) {
			return PickedByMe
		}
		return TakenByOther
	}

	return Open
}

// CellLabel extracts the slot label: the first line of the cell text.
func CellLabel(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// CompileNamePattern compiles the user-supplied name pattern
// case-insensitively. An empty pattern yields nil (detection disabled).
func CompileNamePattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("grid: invalid name pattern %q: %w", pattern, err)
	}
	return re, nil
}
