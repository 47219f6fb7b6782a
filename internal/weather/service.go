package weather

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "inkcal/internal/log"
	"inkcal/internal/metrics"
	"inkcal/internal/model"
)

// Fetcher is the upstream surface a Service needs. *Client implements it.
type Fetcher interface {
	Forecast(ctx context.Context) (*ForecastResponse, error)
	AirQuality(ctx context.Context) (*AirQualityResponse, error)
}

// Service produces weather snapshots for the display timezone.
type Service struct {
	fetcher Fetcher
	loc     *time.Location
	now     func() time.Time
}

// NewService creates a Service. A nil fetcher disables weather.
func NewService(fetcher Fetcher, loc *time.Location) *Service {
	return &Service{fetcher: fetcher, loc: loc, now: time.Now}
}

// Fetch retrieves both feeds concurrently and aggregates them. Either
// failing fails the whole snapshot.
func (s *Service) Fetch(ctx context.Context) (*model.WeatherSnapshot, error) {
	var (
		fc *ForecastResponse
		aq *AirQualityResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		fc, err = s.fetcher.Forecast(gctx)
		return err
	})
	g.Go(func() (err error) {
		aq, err = s.fetcher.AirQuality(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Aggregate(fc, aq, s.now(), s.loc)
}

// Snapshot is Fetch with failures logged and swallowed: weather is optional,
// so callers get nil instead of an error.
func (s *Service) Snapshot(ctx context.Context) *model.WeatherSnapshot {
	if s == nil || s.fetcher == nil {
		metrics.WeatherSnapshots.WithLabelValues("disabled").Inc()
		return nil
	}

	snap, err := s.Fetch(ctx)
	if err != nil {
		metrics.WeatherSnapshots.WithLabelValues("error").Inc()
		appLog.Error("weather unavailable", err)
		return nil
	}

	metrics.WeatherSnapshots.WithLabelValues("ok").Inc()
	appLog.Debug("weather snapshot built", "hours", len(snap.Hourly), "days", len(snap.Daily))
	return snap
}
