package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "inkcal/internal/log"
)

const (
	dateLayout     = "20060102"
	localLayout    = "20060102T150405"
	utcLayout      = "20060102T150405Z"
	statusCanceled = "CANCELLED"
)

// ParsedEvent is one VEVENT before recurrence expansion.
//
// All-day Start/End are midnight UTC of the calendar date; they carry no
// instant and are re-anchored into the display timezone during expansion.
type ParsedEvent struct {
	Feed Feed

	UID       string
	Summary   *string
	Location  *string
	Cancelled bool

	Start  time.Time
	End    time.Time // zero when the VEVENT has neither DTEND nor a usable end
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID of an overridden instance
}

// IsOverride reports whether ev replaces a single instance of a series.
func (ev ParsedEvent) IsOverride() bool { return ev.Recurrence != nil }

// ParseICS parses one payload. Malformed VEVENTs are logged and skipped.
func ParseICS(feed Feed, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse ics %s: %w", feed.ID, err)
	}

	events := make([]ParsedEvent, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(feed, ve)
		if perr != nil {
			appLog.Debug("ics vevent skipped", "id", feed.ID, "err", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", feed.ID, "url", redactURL(feed.URL), "event_count", len(events))
	return events, nil
}

func parseVEvent(feed Feed, ve *ical.VEvent) (ParsedEvent, error) {
	out := ParsedEvent{Feed: feed}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		s := p.Value
		out.Summary = &s
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil && p.Value != "" {
		s := p.Value
		out.Location = &s
	}
	if p := ve.GetProperty("STATUS"); p != nil {
		out.Cancelled = strings.EqualFold(strings.TrimSpace(p.Value), statusCanceled)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, fmt.Errorf("%s: missing DTSTART", out.UID)
	}
	out.AllDay = isDateValue(dtStart)

	if out.AllDay {
		start, err := parseDate(dtStart.Value)
		if err != nil {
			return out, fmt.Errorf("%s: DTSTART: %w", out.UID, err)
		}
		out.Start = start
		out.End = start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := parseDate(dtEnd.Value); err == nil && end.After(start) {
				out.End = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, fmt.Errorf("%s: DTSTART: %w", out.UID, err)
		}
		out.Start = start
		if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
			if end, err := ve.GetEndAt(); err == nil && !end.Before(start) {
				out.End = end
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		tzid := param(p.ICalParameters, "TZID")
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, tzid, out.Start.Location()); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		t, err := parseICSTime(p.Value, param(p.ICalParameters, "TZID"), out.Start.Location())
		if err != nil {
			return out, fmt.Errorf("%s: RECURRENCE-ID: %w", out.UID, err)
		}
		out.Recurrence = &t
	}

	return out, nil
}

// isDateValue reports whether a DTSTART is a DATE rather than a DATE-TIME.
func isDateValue(p *ical.IANAProperty) bool {
	if strings.EqualFold(param(p.ICalParameters, "VALUE"), "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func param(params map[string][]string, key string) string {
	if vs, ok := params[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if len(v) > len(dateLayout) {
		v = v[:len(dateLayout)]
	}
	return time.ParseInLocation(dateLayout, v, time.UTC)
}

// parseICSTime parses an EXDATE or RECURRENCE-ID value. Date-only values
// follow the all-day convention (midnight UTC); floating date-times use
// tzid when given and fall back otherwise.
func parseICSTime(v, tzid string, fallback *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse(utcLayout, v)
	case strings.Contains(v, "T"):
		loc := fallback
		if tzid != "" {
			if l, err := time.LoadLocation(tzid); err == nil {
				loc = l
			}
		}
		if loc == nil {
			loc = time.UTC
		}
		return time.ParseInLocation(localLayout, v, loc)
	default:
		return parseDate(v)
	}
}
