package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkcal_upstream_requests_total",
			Help: "Total upstream HTTP calls by service and status",
		},
		[]string{"service", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkcal_upstream_latency_seconds",
			Help:    "Upstream HTTP call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	EventsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkcal_events_normalized_total",
			Help: "Calendar events successfully normalized",
		},
		[]string{"calendar"},
	)

	EventsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkcal_events_skipped_total",
			Help: "Calendar records dropped during normalization",
		},
		[]string{"reason"},
	)

	WeatherSnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkcal_weather_snapshots_total",
			Help: "Weather snapshot builds by result",
		},
		[]string{"result"},
	)

	PayloadBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkcal_payload_builds_total",
			Help: "Payload builds by result",
		},
		[]string{"result"},
	)
)
