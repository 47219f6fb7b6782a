package calendar

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "inkcal/internal/log"
	"inkcal/internal/metrics"
	"inkcal/internal/model"
)

// Horizon is how far ahead events are queried.
const Horizon = 365 * 24 * time.Hour

// Range is the [Start, End) window events are fetched for.
type Range struct {
	Start time.Time
	End   time.Time
}

// WindowFrom returns now..now+Horizon in the display timezone.
func WindowFrom(now time.Time, loc *time.Location) Range {
	start := now.In(loc)
	return Range{Start: start, End: start.Add(Horizon)}
}

// Source is one calendar feeding the payload. Fetch returns every raw
// record in the window, following pagination until exhausted.
type Source interface {
	ID() string
	Fetch(ctx context.Context, rng Range) ([]RawEvent, error)
}

// Collect fetches all sources concurrently, normalizes their records and
// returns the combined, sorted list. The first source error aborts the
// whole collection.
func Collect(ctx context.Context, sources []Source, loc *time.Location, rng Range) ([]model.Event, error) {
	perSource := make([][]model.Event, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			raws, err := src.Fetch(gctx, rng)
			if err != nil {
				appLog.Error("calendar fetch failed", err, "calendar", src.ID())
				return err
			}
			perSource[i] = NormalizeAll(raws, src.ID(), loc)
			appLog.Debug("calendar fetched", "calendar", src.ID(), "raw", len(raws), "events", len(perSource[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := make([]model.Event, 0)
	for _, evs := range perSource {
		events = append(events, evs...)
	}
	SortEvents(events)
	return events, nil
}

// NormalizeAll normalizes raws, silently dropping cancelled and unparsable
// records.
func NormalizeAll(raws []RawEvent, calendarID string, loc *time.Location) []model.Event {
	out := make([]model.Event, 0, len(raws))
	for _, raw := range raws {
		ev, err := Normalize(raw, calendarID, loc)
		if err != nil {
			reason := "unparsable"
			if errors.Is(err, ErrCancelled) {
				reason = "cancelled"
			} else {
				appLog.Debug("skipping event", "calendar", calendarID, "id", raw.ID, "err", err)
			}
			metrics.EventsSkipped.WithLabelValues(reason).Inc()
			continue
		}
		out = append(out, ev)
	}
	metrics.EventsNormalized.WithLabelValues(calendarID).Add(float64(len(out)))
	return out
}

// SortEvents orders events by date, then all-day before timed, then by the
// actual start instant.
func SortEvents(events []model.Event) {
	slices.SortStableFunc(events, func(a, b model.Event) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		if a.AllDay != b.AllDay {
			if a.AllDay {
				return -1
			}
			return 1
		}
		return a.Start.Compare(b.Start)
	})
}
