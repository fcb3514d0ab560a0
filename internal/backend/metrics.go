package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_console_backend_requests_total",
			Help: "Backend REST calls issued by the console, by route and outcome.",
		},
		[]string{"method", "route", "outcome"},
	)

	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kite_console_backend_request_duration_seconds",
			Help:    "Backend REST call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func observeCall(method, route, outcome string, start time.Time) {
	callsTotal.WithLabelValues(method, route, outcome).Inc()
	callDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}
