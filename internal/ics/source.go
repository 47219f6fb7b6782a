package ics

import (
	"context"
	"time"

	"inkcal/internal/calendar"
	"inkcal/internal/timefmt"
)

// Source exposes one ICS feed as a calendar.Source.
type Source struct {
	feed    Feed
	fetcher *Fetcher
}

// NewSource wraps feed. A nil fetcher gets a default one.
func NewSource(feed Feed, fetcher *Fetcher) *Source {
	if fetcher == nil {
		fetcher = NewFetcher(nil)
	}
	return &Source{feed: feed, fetcher: fetcher}
}

func (s *Source) ID() string { return s.feed.ID }

// Fetch downloads, parses and expands the feed, returning one raw record per
// occurrence inside rng.
func (s *Source) Fetch(ctx context.Context, rng calendar.Range) ([]calendar.RawEvent, error) {
	body, err := s.fetcher.Fetch(ctx, s.feed)
	if err != nil {
		return nil, err
	}
	parsed, err := ParseICS(s.feed, body)
	if err != nil {
		return nil, err
	}
	occs, err := ExpandOccurrences(parsed, ExpandConfig{
		Location:   rng.Start.Location(),
		RangeStart: rng.Start,
		RangeEnd:   rng.End,
	})
	if err != nil {
		return nil, err
	}

	raws := make([]calendar.RawEvent, 0, len(occs))
	for _, occ := range occs {
		raws = append(raws, ToRawEvent(occ))
	}
	return raws, nil
}

// ToRawEvent maps an occurrence onto the record shape the normalizer reads:
// dates for all-day occurrences, RFC3339 instants otherwise.
func ToRawEvent(occ Occurrence) calendar.RawEvent {
	raw := calendar.RawEvent{
		ID:       occ.ID,
		Summary:  occ.Summary,
		Location: occ.Location,
	}
	if occ.Cancelled {
		raw.Status = "cancelled"
	}

	if occ.AllDay {
		raw.Start.Date = occ.Start.Format(timefmt.DateKeyLayout)
		if !occ.End.IsZero() {
			raw.End.Date = occ.End.Format(timefmt.DateKeyLayout)
		}
		return raw
	}

	raw.Start.DateTime = occ.Start.Format(time.RFC3339)
	if !occ.End.IsZero() {
		raw.End.DateTime = occ.End.Format(time.RFC3339)
	}
	return raw
}
