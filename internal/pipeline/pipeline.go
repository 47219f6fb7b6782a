// Package pipeline assembles the display payload from calendars and weather.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"inkcal/internal/calendar"
	"inkcal/internal/config"
	"inkcal/internal/ics"
	appLog "inkcal/internal/log"
	"inkcal/internal/metrics"
	"inkcal/internal/model"
	"inkcal/internal/weather"
)

// TokenSource mints Google access tokens. *auth.Provider implements it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// WeatherSource returns a snapshot, or nil when weather is unavailable.
type WeatherSource interface {
	Snapshot(ctx context.Context) *model.WeatherSnapshot
}

// Options wires a Builder by hand; NewFromConfig covers the usual case.
type Options struct {
	Timezone string
	Location *time.Location

	// GoogleCalendars are fetched through Google with a fresh access token
	// on every build. Tokens is only consulted when this is non-empty.
	GoogleCalendars []string
	Google          *calendar.GoogleClient
	Tokens          TokenSource

	// Extra holds calendars that need no Google credential (ICS feeds).
	Extra []calendar.Source

	Weather WeatherSource
}

// Builder produces payloads. It holds no per-build state and is safe for
// concurrent use.
type Builder struct {
	opts Options
	now  func() time.Time
}

// New creates a Builder from explicit options.
func New(opts Options) *Builder {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Timezone == "" {
		opts.Timezone = opts.Location.String()
	}
	return &Builder{opts: opts, now: time.Now}
}

// NewFromConfig builds every source described by cfg. client is shared by
// all upstream calls; nil means the default client.
func NewFromConfig(cfg *config.Config, tokens TokenSource, client *http.Client) (*Builder, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	fetcher := ics.NewFetcher(client)
	extra := make([]calendar.Source, 0, len(cfg.Calendars.ICS))
	for _, c := range cfg.Calendars.ICS {
		if c.URL == "" {
			continue
		}
		extra = append(extra, ics.NewSource(ics.Feed{ID: c.ID, URL: c.URL}, fetcher))
	}

	var ws WeatherSource
	if cfg.Weather.Enabled() {
		ws = weather.NewService(weather.NewClient(cfg.Weather, cfg.Timezone, client), loc)
	} else {
		appLog.Info("weather disabled: no coordinates configured")
	}

	return New(Options{
		Timezone:        cfg.Timezone,
		Location:        loc,
		GoogleCalendars: cfg.Calendars.Google,
		Google:          calendar.NewGoogleClient(cfg.Google.CalendarAPI, client),
		Tokens:          tokens,
		Extra:           extra,
		Weather:         ws,
	}), nil
}

// NeedsGoogle reports whether builds require a Google credential.
func (b *Builder) NeedsGoogle() bool {
	return len(b.opts.GoogleCalendars) > 0
}

// Build fetches every calendar and the weather concurrently and returns the
// combined payload. Credential and calendar failures fail the build; weather
// failures only leave Weather nil.
func (b *Builder) Build(ctx context.Context) (*model.Payload, error) {
	start := time.Now()
	loc := b.opts.Location
	now := b.now().In(loc)

	sources, err := b.sources(ctx)
	if err != nil {
		metrics.PayloadBuilds.WithLabelValues("auth_error").Inc()
		return nil, err
	}

	var (
		events []model.Event
		snap   *model.WeatherSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = calendar.Collect(gctx, sources, loc, calendar.WindowFrom(now, loc))
		return err
	})
	if b.opts.Weather != nil {
		g.Go(func() error {
			snap = b.opts.Weather.Snapshot(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.PayloadBuilds.WithLabelValues("calendar_error").Inc()
		return nil, err
	}

	metrics.PayloadBuilds.WithLabelValues("ok").Inc()
	appLog.Info("payload built", "events", len(events), "weather", snap != nil, "took", time.Since(start).String())

	return &model.Payload{
		GeneratedAt: now,
		Timezone:    b.opts.Timezone,
		EventCount:  len(events),
		Events:      events,
		Weather:     snap,
	}, nil
}

// sources lists Google calendars first, then the credential-free ones, in
// configuration order.
func (b *Builder) sources(ctx context.Context) ([]calendar.Source, error) {
	out := make([]calendar.Source, 0, len(b.opts.GoogleCalendars)+len(b.opts.Extra))
	if b.NeedsGoogle() {
		if b.opts.Tokens == nil {
			return nil, errors.New("google calendars configured without a token source")
		}
		accessToken, err := b.opts.Tokens.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range b.opts.GoogleCalendars {
			out = append(out, &calendar.GoogleSource{
				Client:      b.opts.Google,
				AccessToken: accessToken,
				CalendarID:  id,
			})
		}
	}
	return append(out, b.opts.Extra...), nil
}
