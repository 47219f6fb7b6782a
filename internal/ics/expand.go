package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "inkcal/internal/log"
)

const defaultMaxOccurrencesPerEvent = 5000

// Occurrence is one concrete instance of a VEVENT.
type Occurrence struct {
	ID        string
	FeedID    string
	Summary   *string
	Location  *string
	Cancelled bool
	AllDay    bool

	// For all-day occurrences Start/End are midnight UTC of the first day and
	// of the day after the last day.
	Start time.Time
	End   time.Time // zero if unknown
}

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// Location anchors all-day dates when testing them against the window.
	Location *time.Location

	// An occurrence is kept when it overlaps [RangeStart, RangeEnd).
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single series. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ExpandOccurrences turns parsed VEVENTs into the occurrences inside the
// configured window. RRULE, EXDATE and RECURRENCE-ID overrides are applied.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) ([]Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	var order []string
	bases := make(map[string][]ParsedEvent)
	overrides := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, ok := bases[ev.UID]; !ok {
			order = append(order, ev.UID)
		}
		bases[ev.UID] = append(bases[ev.UID], ev)
	}

	out := make([]Occurrence, 0)
	for _, uid := range order {
		for _, ev := range bases[uid] {
			if ev.RawRRule == "" {
				out = append(out, expandSingle(ev, overrides[uid], cfg)...)
				continue
			}
			occ, capped := expandRecurring(ev, overrides[uid], cfg)
			if capped {
				appLog.Info("ics series truncated", "uid", uid, "cap", cfg.MaxOccurrencesPerEvent)
			}
			out = append(out, occ...)
		}
	}
	return out, nil
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []Occurrence {
	if o, ok := findOverride(overrides, ev.Start); ok {
		ev = o
	}
	if !overlaps(ev.Start, ev.End, ev.AllDay, cfg) {
		return nil
	}
	return []Occurrence{makeOccurrence(ev, ev.UID, ev.Start, ev.End)}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]Occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	var dur time.Duration
	if !ev.End.IsZero() {
		dur = ev.End.Sub(ev.Start)
	}

	// All-day series live in floating UTC dates, so the window is widened by
	// a day on each side and trimmed precisely by overlaps.
	from, to := cfg.RangeStart.Add(-dur), cfg.RangeEnd
	if ev.AllDay {
		from, to = from.Add(-24*time.Hour), to.Add(24*time.Hour)
	}
	starts := set.Between(from.In(ev.Start.Location()), to.In(ev.Start.Location()), true)

	capped := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		capped = true
	}

	out := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		inst := ev
		id := instanceID(ev.UID, start, ev.AllDay)
		end := time.Time{}
		if dur > 0 || ev.AllDay {
			end = start.Add(dur)
		}
		if o, ok := findOverride(overrides, start); ok {
			inst, start, end = o, o.Start, o.End
		}
		if !overlaps(start, end, inst.AllDay, cfg) {
			continue
		}
		out = append(out, makeOccurrence(inst, id, start, end))
	}
	return out, capped
}

// findOverride returns the override whose RECURRENCE-ID equals start.
func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// overlaps reports whether an occurrence intersects the window. All-day
// dates are anchored at midnight in cfg.Location; an unknown end is treated
// as an instant.
func overlaps(start, end time.Time, allDay bool, cfg ExpandConfig) bool {
	if allDay {
		start = anchor(start, cfg.Location)
		end = anchor(end, cfg.Location)
	}
	if end.IsZero() || end.Before(start) {
		end = start
	}
	if !start.Before(cfg.RangeEnd) {
		return false
	}
	if end.Equal(start) {
		return !start.Before(cfg.RangeStart)
	}
	return end.After(cfg.RangeStart)
}

func anchor(date time.Time, loc *time.Location) time.Time {
	if date.IsZero() {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
}

func instanceID(uid string, start time.Time, allDay bool) string {
	if allDay {
		return uid + "_" + start.Format(dateLayout)
	}
	return uid + "_" + start.UTC().Format(utcLayout)
}

func makeOccurrence(ev ParsedEvent, id string, start, end time.Time) Occurrence {
	return Occurrence{
		ID:        id,
		FeedID:    ev.Feed.ID,
		Summary:   ev.Summary,
		Location:  ev.Location,
		Cancelled: ev.Cancelled,
		AllDay:    ev.AllDay,
		Start:     start,
		End:       end,
	}
}
