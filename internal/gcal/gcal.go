// Package gcal is the remote calendar collaborator: a thin Google Calendar
// client that creates, deletes and lists the events this tool manages.
// Every created event carries a private extended property marking it as
// managed plus the shift's identity key, so externally created events are
// never mistaken for ours.
package gcal

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	appLog "shiftsync/internal/log"
	"shiftsync/internal/model"
)

const (
	managedTag   = "shiftsyncManaged"
	shiftKeyProp = "shiftKey"
)

// Client wraps the Calendar API for a single target calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	timezone   string
	colors     map[model.Category]string
}

// NewClient authenticates with a service-account key (raw JSON) and returns
// a client bound to calendarID. timezone is the IANA zone attached to event
// times; shift instants are naive local values in that zone.
func NewClient(ctx context.Context, serviceAccountJSON []byte, calendarID, timezone string, colors map[model.Category]string) (*Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, serviceAccountJSON, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("gcal: parse service account credentials: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("gcal: create calendar service: %w", err)
	}

	return &Client{
		svc:        svc,
		calendarID: calendarID,
		timezone:   timezone,
		colors:     colors,
	}, nil
}

// CreateEvent inserts a shift as a calendar event and returns the event ID.
func (c *Client) CreateEvent(ctx context.Context, shift model.CandidateShift, cat model.Category) (string, error) {
	ev := &calendar.Event{
		Summary:     summaryFor(shift, cat),
		Description: descriptionFor(shift, cat),
		ColorId:     c.colors[cat],
		Start: &calendar.EventDateTime{
			DateTime: shift.Start.Format(model.KeyTimeLayout),
			TimeZone: c.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: shift.End.Format(model.KeyTimeLayout),
			TimeZone: c.timezone,
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				managedTag:   "true",
				shiftKeyProp: shift.Key(),
			},
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gcal: insert event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes an event by ID.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gcal: delete event %s: %w", eventID, err)
	}
	return nil
}

// ListManaged pages through every event on the calendar carrying the
// managed marker. Used for auditing; the sync itself trusts only the state
// file.
func (c *Client) ListManaged(ctx context.Context) ([]*calendar.Event, error) {
	var events []*calendar.Event
	pageToken := ""

	for {
		call := c.svc.Events.List(c.calendarID).
			PrivateExtendedProperty(managedTag + "=true").
			MaxResults(250).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("gcal: list managed events: %w", err)
		}
		events = append(events, res.Items...)

		pageToken = res.NextPageToken
		if pageToken == "" {
			break
		}
	}

	appLog.Info("gcal: listed managed events", "count", len(events))
	return events, nil
}

func summaryFor(shift model.CandidateShift, cat model.Category) string {
	switch cat {
	case model.CategoryPicked:
		return fmt.Sprintf("SHIFT (picked): %s", shift.Assignment)
	case model.CategoryScheduled:
		return fmt.Sprintf("SHIFT: %s", shift.Assignment)
	default:
		return fmt.Sprintf("OPEN: %s (%s)", shift.Assignment, shift.Label)
	}
}

func descriptionFor(shift model.CandidateShift, cat model.Category) string {
	lines := []string{
		fmt.Sprintf("Assignment: %s", shift.Assignment),
	}
	if shift.Label != "" {
		lines = append(lines, fmt.Sprintf("Label: %s", shift.Label))
	}
	lines = append(lines,
		fmt.Sprintf("Category: %s", cat),
		"",
		"Auto-managed by shiftsync",
	)
	return strings.Join(lines, "\n")
}
