package calendar

import (
	"errors"
	"fmt"
	"time"

	"inkcal/internal/model"
	"inkcal/internal/timefmt"
)

// DefaultSummary is shown for events without a title.
const DefaultSummary = "(No title)"

// naiveDateTimeLayout matches dateTime values that carry no offset.
const naiveDateTimeLayout = "2006-01-02T15:04:05"

// RawTime is the start or end of an upstream record. Exactly one of Date
// (all-day, YYYY-MM-DD) or DateTime (RFC 3339) is normally set.
type RawTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// RawEvent is a loosely-typed upstream event record, shaped after the
// Google Calendar events resource. ICS feeds are converted into it too.
type RawEvent struct {
	ID       string  `json:"id"`
	Status   string  `json:"status,omitempty"`
	Summary  *string `json:"summary,omitempty"`
	Location *string `json:"location,omitempty"`
	Start    RawTime `json:"start"`
	End      RawTime `json:"end"`
}

// ErrCancelled marks records whose status is "cancelled".
var ErrCancelled = errors.New("event cancelled")

var errNoTime = errors.New("neither date nor dateTime set")

// ParseError reports an upstream record that cannot become an Event.
type ParseError struct {
	CalendarID string
	EventID    string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("calendar %s: event %q: %v", e.CalendarID, e.EventID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Normalize converts one upstream record into an Event rendered in loc.
// Cancelled records return ErrCancelled; records without a resolvable start
// return a *ParseError.
func Normalize(raw RawEvent, calendarID string, loc *time.Location) (model.Event, error) {
	if raw.Status == "cancelled" {
		return model.Event{}, ErrCancelled
	}

	start, allDay, err := parseTime(raw.Start, loc)
	if err != nil {
		return model.Event{}, &ParseError{CalendarID: calendarID, EventID: raw.ID, Err: fmt.Errorf("start: %w", err)}
	}

	var end *time.Time
	if t, _, err := parseTime(raw.End, loc); err == nil {
		end = &t
	}

	summary := DefaultSummary
	if raw.Summary != nil {
		summary = *raw.Summary
	}

	ev := model.Event{
		ID:            raw.ID,
		Summary:       summary,
		Date:          timefmt.DateKey(start),
		DateFormatted: timefmt.DateRange(start, end, allDay),
		AllDay:        allDay,
		Location:      raw.Location,
		CalendarID:    calendarID,
		Start:         start,
	}
	if !allDay {
		ev.StartTime = timefmt.Clock(start)
		if end != nil {
			ev.EndTime = timefmt.Clock(*end)
		}
	}
	return ev, nil
}

// parseTime resolves a RawTime into loc. All-day dates are pinned to
// midnight in loc; timestamps are converted from their own offset.
func parseTime(rt RawTime, loc *time.Location) (time.Time, bool, error) {
	if rt.Date != "" {
		t, err := time.ParseInLocation(timefmt.DateKeyLayout, rt.Date, loc)
		if err != nil {
			return time.Time{}, true, err
		}
		return t, true, nil
	}

	if rt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, rt.DateTime); err == nil {
			return t.In(loc), false, nil
		}

		// No offset: interpret in the record's own zone, else the display zone.
		zone := loc
		if rt.TimeZone != "" {
			if z, err := time.LoadLocation(rt.TimeZone); err == nil {
				zone = z
			}
		}
		t, err := time.ParseInLocation(naiveDateTimeLayout, rt.DateTime, zone)
		if err != nil {
			return time.Time{}, false, err
		}
		return t.In(loc), false, nil
	}

	return time.Time{}, false, errNoTime
}
