package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// MongoConnectionState is 0 while pending, 1 once connected, 2 after a failed attempt.
	MongoConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backend_mongodb_connection_state",
			Help: "State of the MongoDB connection attempt (0 pending, 1 connected, 2 failed)",
		},
	)

	JSONBodyRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_json_body_rejections_total",
			Help: "Total number of request bodies rejected by the JSON parser",
		},
		[]string{"reason"},
	)
)
