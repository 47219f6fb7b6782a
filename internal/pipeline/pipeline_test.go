package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkcal/internal/auth"
	"inkcal/internal/calendar"
	"inkcal/internal/model"
)

type fakeTokens struct {
	token string
	err   error
	calls int
}

func (f *fakeTokens) AccessToken(context.Context) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakeWeather struct{ snap *model.WeatherSnapshot }

func (f fakeWeather) Snapshot(context.Context) *model.WeatherSnapshot { return f.snap }

type staticSource struct {
	id   string
	raws []calendar.RawEvent
	err  error
}

func (s staticSource) ID() string { return s.id }

func (s staticSource) Fetch(context.Context, calendar.Range) ([]calendar.RawEvent, error) {
	return s.raws, s.err
}

func fixedNow(b *Builder) {
	b.now = func() time.Time { return time.Date(2024, 3, 18, 7, 0, 0, 0, time.UTC) }
}

func TestBuild_MergesGoogleAndExtraSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]any{"items": []calendar.RawEvent{
			{ID: "g1", Start: calendar.RawTime{DateTime: "2024-03-18T15:00:00Z"}},
		}})
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "at-123"}
	b := New(Options{
		Timezone:        "UTC",
		GoogleCalendars: []string{"primary"},
		Google:          calendar.NewGoogleClient(srv.URL, srv.Client()),
		Tokens:          tokens,
		Extra: []calendar.Source{staticSource{id: "holidays", raws: []calendar.RawEvent{
			{ID: "h1", Start: calendar.RawTime{Date: "2024-03-18"}},
		}}},
		Weather: fakeWeather{snap: &model.WeatherSnapshot{Current: model.Current{Temp: 50}}},
	})
	fixedNow(b)

	p, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tokens.calls != 1 {
		t.Errorf("AccessToken calls = %d", tokens.calls)
	}
	if p.EventCount != 2 || len(p.Events) != 2 {
		t.Fatalf("events = %+v", p.Events)
	}
	if p.Events[0].ID != "h1" || p.Events[1].ID != "g1" || p.Events[1].CalendarID != "primary" {
		t.Errorf("order = %s, %s", p.Events[0].ID, p.Events[1].ID)
	}
	if p.Timezone != "UTC" || !p.GeneratedAt.Equal(time.Date(2024, 3, 18, 7, 0, 0, 0, time.UTC)) {
		t.Errorf("payload header = %s %s", p.Timezone, p.GeneratedAt)
	}
	if p.Weather == nil || p.Weather.Current.Temp != 50 {
		t.Errorf("weather = %+v", p.Weather)
	}
}

func TestBuild_AuthErrorStopsBeforeFetching(t *testing.T) {
	fetched := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched = true
	}))
	defer srv.Close()

	b := New(Options{
		GoogleCalendars: []string{"primary"},
		Google:          calendar.NewGoogleClient(srv.URL, srv.Client()),
		Tokens:          &fakeTokens{err: auth.ErrNoCredential},
	})
	if _, err := b.Build(context.Background()); !errors.Is(err, auth.ErrNoCredential) {
		t.Fatalf("err = %v, want ErrNoCredential", err)
	}
	if fetched {
		t.Error("calendar fetched without a credential")
	}
}

func TestBuild_CalendarErrorFailsWholeBuild(t *testing.T) {
	boom := errors.New("calendar: unexpected status: 500")
	b := New(Options{
		Extra:   []calendar.Source{staticSource{id: "a", err: boom}},
		Weather: fakeWeather{snap: &model.WeatherSnapshot{}},
	})
	p, err := b.Build(context.Background())
	if p != nil || !errors.Is(err, boom) {
		t.Fatalf("p = %v, err = %v", p, err)
	}
}

func TestBuild_WeatherUnavailableIsNull(t *testing.T) {
	tokens := &fakeTokens{}
	b := New(Options{
		Tokens:  tokens,
		Extra:   []calendar.Source{staticSource{id: "a"}},
		Weather: fakeWeather{},
	})
	fixedNow(b)

	p, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.Weather != nil {
		t.Errorf("weather = %+v, want nil", p.Weather)
	}
	if p.Events == nil || p.EventCount != 0 {
		t.Errorf("events = %#v", p.Events)
	}
	if tokens.calls != 0 {
		t.Error("token requested with no google calendars configured")
	}

	data, _ := json.Marshal(p)
	var raw map[string]any
	json.Unmarshal(data, &raw)
	if v, ok := raw["weather"]; !ok || v != nil {
		t.Errorf("weather JSON = %v, want explicit null", v)
	}
	if _, ok := raw["events"].([]any); !ok {
		t.Errorf("events JSON = %v, want array", raw["events"])
	}
}
