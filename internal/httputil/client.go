package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"inkcal/internal/metrics"
)

const DefaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 2048

// NewClient returns an HTTP client with standard timeout configuration.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}

// StatusError reports a non-success response from an upstream service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status: %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status: %d: %s", e.Service, e.StatusCode, e.Body)
}

// GetJSON issues a GET to rawURL and decodes a 200 response into v.
// Any other status yields a *StatusError. service labels metrics and errors.
func GetJSON(ctx context.Context, client *http.Client, service, rawURL string, header http.Header, v any) error {
	body, err := Get(ctx, client, service, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}

// Get issues a GET to rawURL and returns the body of a 200 response.
func Get(ctx context.Context, client *http.Client, service, rawURL string, header http.Header) ([]byte, error) {
	if client == nil {
		client = NewClient()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", service, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", "inkcal/1.0")

	start := time.Now()
	resp, err := client.Do(req)
	metrics.UpstreamLatency.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(service, "error").Inc()
		return nil, fmt.Errorf("%s: fetch: %w", service, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestsTotal.WithLabelValues(service, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Service: service, StatusCode: resp.StatusCode, Body: string(b)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", service, err)
	}
	return body, nil
}
