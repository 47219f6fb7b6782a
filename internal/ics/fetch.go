package ics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"inkcal/internal/httputil"
	appLog "inkcal/internal/log"
)

const service = "ics"

// Feed is one ICS subscription.
type Feed struct {
	// ID is the calendar_id attached to every event from this feed.
	ID string
	// URL is the ICS endpoint. Secret tokens often live in its path or
	// query, so it is never logged in full.
	URL string
}

// Fetcher downloads ICS payloads. Every call goes to the network; there is
// no conditional request or on-disk copy between payload builds.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. A nil client gets the shared default timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = httputil.NewClient()
	}
	return &Fetcher{client: client}
}

// Fetch returns the body of feed. A non-200 response is an error.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) ([]byte, error) {
	if feed.URL == "" {
		return nil, errors.New("ics: feed URL is empty")
	}

	appLog.Debug("ics fetch start", "id", feed.ID, "url", redactURL(feed.URL))

	body, err := httputil.Get(ctx, f.client, service, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch ics %s: %w", feed.ID, err)
	}

	appLog.Debug("ics fetch success", "id", feed.ID, "url", redactURL(feed.URL), "bytes", len(body))
	return body, nil
}

// redactURL keeps only scheme and host of an ICS URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
