// Package timeparse normalizes the raw date and time-range text found on
// the scheduling grid into concrete instants.
//
// The grid renders times in a handful of loosely consistent shapes:
//
//	"9:00pm – 7:00am (02/18)"   overnight shift, end is on the given date
//	"8:00am – 5:00pm"           same-day shift
//	"19:00 - 07:00 (03/01)"     24-hour clock, hyphen separator
//
// A single-letter meridiem marker ("9:00p") is accepted and normalized.
// The parenthesized MM/DD suffix marks the end instant's calendar date; its
// year is inferred from the anchor date, rolling into the next year when
// the computed end would otherwise precede the start (Dec -> Jan).
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// 12-hour ranges, meridiem optionally a single letter ("9:00p").
	range12Re = regexp.MustCompile(
		`(\d{1,2}:\d{2}\s*[AaPp][Mm]?)\s*[-–]\s*(\d{1,2}:\d{2}\s*[AaPp][Mm]?)(?:\s*\((\d{1,2})/(\d{1,2})\))?`)

	// Bare 24-hour ranges ("19:00 - 07:00").
	range24Re = regexp.MustCompile(
		`(\d{1,2}:\d{2})\s*[-–]\s*(\d{1,2}:\d{2})(?:\s*\((\d{1,2})/(\d{1,2})\))?`)

	clockRe = regexp.MustCompile(`^(\d{1,2}:\d{2})\s*([AaPp][Mm]?)$`)
)

// dateLayouts are tried in order by ParseDate. Layouts without a year
// produce year 0 and are backfilled with the reference year.
var dateLayouts = []string{
	"01/02/2006",
	"01/02/06",
	"2006-01-02",
	"Jan 2, 2006",
	"Jan 2",
}

// ParseDate parses grid header date text into a midnight instant. A missing
// year defaults to ref's year. Returns ok=false for unparseable input; the
// caller skips the affected row rather than aborting.
func ParseDate(text string, ref time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = time.Date(ref.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

// ParseTimeRange parses shift time-range text against an anchor date (the
// calendar day the shift starts on, at midnight). Returns ok=false when
// neither the 12-hour nor the 24-hour pattern matches; the caller falls
// back to a full-day placeholder instead of dropping the shift.
func ParseTimeRange(text string, anchor time.Time) (start, end time.Time, ok bool) {
	m := range12Re.FindStringSubmatch(text)
	if m == nil {
		m = range24Re.FindStringSubmatch(text)
	}
	if m == nil {
		return time.Time{}, time.Time{}, false
	}

	startClock, sok := parseClock(m[1])
	endClock, eok := parseClock(m[2])
	if !sok || !eok {
		return time.Time{}, time.Time{}, false
	}

	start = anchor.Add(startClock)

	endDay := anchor
	if m[3] != "" {
		// Overnight shift: the suffix gives the end's month/day; the year
		// comes from the anchor, bumped when the date wraps past December.
		month, _ := strconv.Atoi(m[3])
		day, _ := strconv.Atoi(m[4])
		endDay = time.Date(anchor.Year(), time.Month(month), day, 0, 0, 0, 0, anchor.Location())
		if endDay.Before(anchor) {
			endDay = endDay.AddDate(1, 0, 0)
		}
	}
	end = endDay.Add(endClock)

	return start, end, true
}

// FullDayRange returns the placeholder range (00:00–23:59) used for shifts
// whose time text could not be parsed.
func FullDayRange(anchor time.Time) (start, end time.Time) {
	return anchor, anchor.Add(23*time.Hour + 59*time.Minute)
}

// parseClock parses a single clock token ("9:00pm", "7:00 AM", "19:00")
// into an offset from midnight.
func parseClock(tok string) (time.Duration, bool) {
	tok = strings.TrimSpace(tok)

	// Normalize "9:00p" -> "9:00 PM" before handing off to time.Parse.
	if m := clockRe.FindStringSubmatch(tok); m != nil {
		suffix := strings.ToUpper(m[2])
		if len(suffix) == 1 {
			suffix += "M"
		}
		tok = m[1] + " " + suffix
	}

	for _, layout := range []string{"3:04 PM", "3:04PM", "15:04"} {
		t, err := time.Parse(layout, tok)
		if err != nil {
			continue
		}
		return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
	}

	return 0, false
}
