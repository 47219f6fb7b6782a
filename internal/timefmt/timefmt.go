// Package timefmt renders dates and clock times the way the display shows them.
package timefmt

import "time"

const (
	// DateKeyLayout is the sortable date key (2024-03-18).
	DateKeyLayout = "2006-01-02"

	dateLayout     = "Mon Jan 2"
	monthDayLayout = "Jan 2"
	hourLayout     = "3 PM"
	clockLayout    = "3:04 PM"
)

// Clock renders t as 12-hour time without a leading zero, dropping the
// minutes on the hour: "8 AM", "8:45 PM".
func Clock(t time.Time) string {
	if t.Minute() == 0 {
		return t.Format(hourLayout)
	}
	return t.Format(clockLayout)
}

// ClockWithMinutes always includes minutes: "7:05 AM".
func ClockWithMinutes(t time.Time) string {
	return t.Format(clockLayout)
}

// Hour renders only the hour: "1 PM".
func Hour(t time.Time) string {
	return t.Format(hourLayout)
}

// Date renders weekday, month and day: "Wed Mar 18".
func Date(t time.Time) string {
	return t.Format(dateLayout)
}

// DateKey renders the sortable date key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// SameDay reports whether a and b fall on the same calendar date in their
// own locations.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateRange renders the date (or date range) of an event.
//
// For all-day events end is exclusive, so the last occupied day is end-1.
// Examples:
//   - single day:            "Wed Mar 18"
//   - all-day, same month:   "Wed Mar 18-22"
//   - all-day, cross month:  "Mon Mar 30-Apr 1"
//   - timed, multi-day:      "Mon Mar 30 10 PM-Apr 1 10 AM"
func DateRange(start time.Time, end *time.Time, allDay bool) string {
	startDate := Date(start)
	if end == nil {
		return startDate
	}

	last := *end
	if allDay {
		last = last.AddDate(0, 0, -1)
	}

	// Zero-length or inverted ranges render as a single day.
	if SameDay(start, last) || last.Before(start) {
		return startDate
	}

	if !allDay {
		return startDate + " " + Clock(start) + "-" + last.Format(monthDayLayout) + " " + Clock(last)
	}

	if start.Year() == last.Year() && start.Month() == last.Month() {
		return startDate + "-" + last.Format("2")
	}
	return startDate + "-" + last.Format(monthDayLayout)
}
