package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inkcal/internal/httputil"
)

const (
	googleService = "google_calendar"
	maxResults    = "2500"
)

// GoogleClient lists events through the Google Calendar v3 REST API.
type GoogleClient struct {
	client  *http.Client
	baseURL string
}

// NewGoogleClient creates a client against baseURL
// (e.g. "https://www.googleapis.com/calendar/v3").
func NewGoogleClient(baseURL string, client *http.Client) *GoogleClient {
	if client == nil {
		client = httputil.NewClient()
	}
	return &GoogleClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type eventsPage struct {
	Items         []RawEvent `json:"items"`
	NextPageToken string     `json:"nextPageToken"`
}

// ListEvents returns every expanded event instance of calendarID within
// rng, following nextPageToken until the last page. A non-success status on
// any page fails the whole call.
func (c *GoogleClient) ListEvents(ctx context.Context, accessToken, calendarID string, rng Range) ([]RawEvent, error) {
	endpoint := c.baseURL + "/calendars/" + url.PathEscape(calendarID) + "/events"
	header := http.Header{"Authorization": []string{"Bearer " + accessToken}}

	var (
		events    []RawEvent
		pageToken string
		seen      = make(map[string]bool)
	)
	for {
		q := url.Values{}
		q.Set("timeMin", rng.Start.Format(time.RFC3339))
		q.Set("timeMax", rng.End.Format(time.RFC3339))
		q.Set("singleEvents", "true")
		q.Set("orderBy", "startTime")
		q.Set("maxResults", maxResults)
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page eventsPage
		if err := httputil.GetJSON(ctx, c.client, googleService, endpoint+"?"+q.Encode(), header, &page); err != nil {
			return nil, fmt.Errorf("fetch calendar %s: %w", calendarID, err)
		}
		events = append(events, page.Items...)

		if page.NextPageToken == "" {
			return events, nil
		}
		if seen[page.NextPageToken] {
			return nil, fmt.Errorf("fetch calendar %s: page token %q repeated", calendarID, page.NextPageToken)
		}
		seen[page.NextPageToken] = true
		pageToken = page.NextPageToken
	}
}

// GoogleSource adapts one Google calendar to the Source interface.
type GoogleSource struct {
	Client      *GoogleClient
	AccessToken string
	CalendarID  string
}

func (s *GoogleSource) ID() string { return s.CalendarID }

func (s *GoogleSource) Fetch(ctx context.Context, rng Range) ([]RawEvent, error) {
	return s.Client.ListEvents(ctx, s.AccessToken, s.CalendarID, rng)
}
