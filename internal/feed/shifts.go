// Package feed consumes the user's personal iCal subscription: the feed of
// shifts they are already committed to. Events are parsed, recurrences are
// expanded within the lookahead window, and everything is normalized into
// naive local shift records in the grid's timezone.
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "shiftsync/internal/log"
	"shiftsync/internal/model"
)

const maxOccurrencesPerEvent = 1000

// parsedEvent is the normalized representation of one VEVENT before
// recurrence expansion.
type parsedEvent struct {
	UID      string
	Summary  string
	Start    time.Time
	End      time.Time
	AllDay   bool
	RawRRule string
	ExDates  []time.Time
}

// CommittedShifts parses an iCal payload and returns the user's committed
// shifts falling inside [from, from+lookaheadDays], expanded across
// recurrences and normalized to naive local times in loc. The summary
// becomes the assignment label.
func CommittedShifts(body []byte, loc *time.Location, from time.Time, lookaheadDays int) ([]model.ScheduledShift, error) {
	if len(body) == 0 {
		return nil, errors.New("feed: empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("feed: parse calendar: %w", err)
	}

	windowStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	windowEnd := windowStart.AddDate(0, 0, lookaheadDays)

	shifts := make([]model.ScheduledShift, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			// Skip the malformed event, keep parsing the rest.
			appLog.Warn("feed: skipping unparseable event", "err", perr)
			continue
		}
		shifts = append(shifts, expandEvent(ev, loc, windowStart, windowEnd)...)
	}

	sort.Slice(shifts, func(i, j int) bool { return shifts[i].Start.Before(shifts[j].Start) })

	appLog.Info("feed: parsed committed shifts", "count", len(shifts),
		"window_start", windowStart.Format(model.DateLayout),
		"window_end", windowEnd.Format(model.DateLayout))
	return shifts, nil
}

func parseVEvent(ve *ical.VEvent) (parsedEvent, error) {
	var out parsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		// Feeds occasionally emit zero-length entries with no DTEND.
		end = start
	}
	out.Start = start
	out.End = end

	// All-day detection: VALUE=DATE parameter or a value without a time part.
	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		if params := dtStartProp.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			out.AllDay = true
		}
	}

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// expandEvent turns one parsed event into zero or more committed shifts
// inside the window.
func expandEvent(ev parsedEvent, loc *time.Location, windowStart, windowEnd time.Time) []model.ScheduledShift {
	if ev.RawRRule == "" {
		if ev.End.Before(windowStart) || ev.Start.After(windowEnd) {
			return nil
		}
		return []model.ScheduledShift{makeShift(ev.Summary, ev.Start, ev.End, ev.AllDay, loc)}
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Warn("feed: unparseable RRULE, using base occurrence only",
			"uid", ev.UID, "rrule", ev.RawRRule, "err", err)
		if ev.End.Before(windowStart) || ev.Start.After(windowEnd) {
			return nil
		}
		return []model.ScheduledShift{makeShift(ev.Summary, ev.Start, ev.End, ev.AllDay, loc)}
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	occTimes := set.Between(windowStart.In(ev.Start.Location()), windowEnd.In(ev.Start.Location()), true)
	if len(occTimes) > maxOccurrencesPerEvent {
		occTimes = occTimes[:maxOccurrencesPerEvent]
		appLog.Warn("feed: recurrence expansion truncated", "uid", ev.UID, "cap", maxOccurrencesPerEvent)
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]model.ScheduledShift, 0, len(occTimes))
	for _, occStart := range occTimes {
		out = append(out, makeShift(ev.Summary, occStart, occStart.Add(dur), ev.AllDay, loc))
	}
	return out
}

// makeShift normalizes an occurrence into a naive-local shift record. The
// shift's calendar day is the day its start falls on in loc, even when the
// shift runs past midnight.
func makeShift(summary string, start, end time.Time, allDay bool, loc *time.Location) model.ScheduledShift {
	if allDay {
		day := naive(start.In(loc))
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		return model.ScheduledShift{
			Date:       day.Format(model.DateLayout),
			Start:      day,
			End:        day.Add(24 * time.Hour),
			Assignment: summary,
		}
	}

	s := naive(start.In(loc))
	e := naive(end.In(loc))
	return model.ScheduledShift{
		Date:       s.Format(model.DateLayout),
		Start:      s,
		End:        e,
		Assignment: summary,
	}
}

// naive strips the zone from a local time, leaving wall-clock fields only.
// The whole pipeline compares instants in the grid's timezone, so dropping
// the zone here keeps feed shifts and scraped shifts directly comparable.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// parseICSTime parses basic ICS date/date-time strings (EXDATE values).
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}
