// Package metrics holds the hub's prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_upstream_requests_total",
			Help: "Requests sent to the plant API by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: success, http_error, transport_error, rejected
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hub_upstream_request_duration_seconds",
			Help:    "Latency of plant API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hub_circuit_breaker_state",
			Help: "Upstream circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hub_aggregation_duration_seconds",
			Help:    "Time spent turning readings into a chart series",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"granularity"},
	)

	RejectedReadings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_rejected_readings_total",
			Help: "Readings dropped from a series because their timestamp did not parse",
		},
	)

	StaleResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_stale_report_responses_total",
			Help: "Power report responses discarded because a newer request superseded them",
		},
	)

	LiveFeedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_live_feed_messages_total",
			Help: "MQTT live feed messages by outcome",
		},
		[]string{"outcome"}, // accepted, decode_error, bad_topic
	)

	LowPowerFactorAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_low_power_factor_alerts_total",
			Help: "Low power factor notifications published",
		},
	)
)
