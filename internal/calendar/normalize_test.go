package calendar

import (
	"errors"
	"testing"
	"time"
)

func strp(s string) *string { return &s }

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestNormalize_AllDayRange(t *testing.T) {
	raw := RawEvent{
		ID:      "spring-break",
		Summary: strp("Spring break"),
		Start:   RawTime{Date: "2024-03-18"},
		End:     RawTime{Date: "2024-03-23"},
	}

	ev, err := Normalize(raw, "primary", time.UTC)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.DateFormatted != "Mon Mar 18-22" {
		t.Errorf("DateFormatted = %q", ev.DateFormatted)
	}
	if !ev.AllDay || ev.StartTime != "" || ev.EndTime != "" {
		t.Errorf("all-day event has times: %+v", ev)
	}
	if ev.Date != "2024-03-18" || ev.CalendarID != "primary" {
		t.Errorf("unexpected keys: %+v", ev)
	}
	if ev.Location != nil {
		t.Errorf("Location = %v, want nil", *ev.Location)
	}
}

func TestNormalize_AllDayCrossMonth(t *testing.T) {
	raw := RawEvent{ID: "trip", Start: RawTime{Date: "2024-03-30"}, End: RawTime{Date: "2024-04-02"}}
	ev, err := Normalize(raw, "primary", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if ev.DateFormatted != "Sat Mar 30-Apr 1" {
		t.Errorf("DateFormatted = %q", ev.DateFormatted)
	}
}

func TestNormalize_TimedConvertsToDisplayZone(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")

	raw := RawEvent{
		ID:       "flight",
		Summary:  strp("Red-eye"),
		Location: strp("SFO"),
		Start:    RawTime{DateTime: "2024-03-31T05:00:00Z"},
		End:      RawTime{DateTime: "2024-03-31T13:00:00-04:00"},
	}
	ev, err := Normalize(raw, "travel", la)
	if err != nil {
		t.Fatal(err)
	}

	// 05:00Z is 22:00 PDT the previous day; 13:00-04:00 is 10:00 PDT.
	if ev.Date != "2024-03-30" {
		t.Errorf("Date = %q, want 2024-03-30", ev.Date)
	}
	if ev.DateFormatted != "Sat Mar 30 10 PM-Mar 31 10 AM" {
		t.Errorf("DateFormatted = %q", ev.DateFormatted)
	}
	if ev.StartTime != "10 PM" || ev.EndTime != "10 AM" {
		t.Errorf("times = %q-%q", ev.StartTime, ev.EndTime)
	}
	if ev.Location == nil || *ev.Location != "SFO" {
		t.Errorf("Location = %v", ev.Location)
	}
}

func TestNormalize_NaiveDateTimeUsesRecordZone(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	raw := RawEvent{
		ID:    "standup",
		Start: RawTime{DateTime: "2024-06-03T09:30:00", TimeZone: "Europe/London"},
		End:   RawTime{DateTime: "2024-06-03T09:45:00", TimeZone: "Europe/London"},
	}
	ev, err := Normalize(raw, "work", ny)
	if err != nil {
		t.Fatal(err)
	}
	if ev.StartTime != "4:30 AM" || ev.EndTime != "4:45 AM" {
		t.Errorf("times = %q-%q, want 4:30 AM-4:45 AM", ev.StartTime, ev.EndTime)
	}
	if ev.DateFormatted != "Mon Jun 3" {
		t.Errorf("DateFormatted = %q", ev.DateFormatted)
	}
}

func TestNormalize_DefaultsAndMissingEnd(t *testing.T) {
	raw := RawEvent{ID: "x", Start: RawTime{DateTime: "2024-03-18T08:00:00Z"}}
	ev, err := Normalize(raw, "primary", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Summary != DefaultSummary {
		t.Errorf("Summary = %q", ev.Summary)
	}
	if ev.DateFormatted != "Mon Mar 18" || ev.StartTime != "8 AM" || ev.EndTime != "" {
		t.Errorf("unexpected event: %+v", ev)
	}

	// An explicit empty title is kept as-is.
	raw.Summary = strp("")
	ev, _ = Normalize(raw, "primary", time.UTC)
	if ev.Summary != "" {
		t.Errorf("Summary = %q, want empty", ev.Summary)
	}
}

func TestNormalize_CancelledNeverProducesEvent(t *testing.T) {
	raw := RawEvent{
		ID:      "gone",
		Status:  "cancelled",
		Summary: strp("Dinner"),
		Start:   RawTime{DateTime: "2024-03-18T19:00:00Z"},
		End:     RawTime{DateTime: "2024-03-18T21:00:00Z"},
	}
	if _, err := Normalize(raw, "primary", time.UTC); !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}

func TestNormalize_Unparsable(t *testing.T) {
	tests := []RawEvent{
		{ID: "no-start"},
		{ID: "bad-date", Start: RawTime{Date: "18/03/2024"}},
		{ID: "bad-datetime", Start: RawTime{DateTime: "tomorrow"}},
	}
	for _, raw := range tests {
		_, err := Normalize(raw, "primary", time.UTC)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%s: err = %v, want *ParseError", raw.ID, err)
			continue
		}
		if pe.EventID != raw.ID {
			t.Errorf("ParseError.EventID = %q, want %q", pe.EventID, raw.ID)
		}
	}
}

func TestNormalize_BadEndIsIgnored(t *testing.T) {
	raw := RawEvent{ID: "x", Start: RawTime{DateTime: "2024-03-18T08:15:00Z"}, End: RawTime{DateTime: "garbage"}}
	ev, err := Normalize(raw, "primary", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if ev.EndTime != "" || ev.DateFormatted != "Mon Mar 18" {
		t.Errorf("unexpected event: %+v", ev)
	}
}
