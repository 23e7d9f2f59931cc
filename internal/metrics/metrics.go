// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	// UserCacheLookups counts user cache reads by result: hit, miss or error.
	UserCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_cache_lookups_total",
			Help: "User cache lookups by result",
		},
		[]string{"result"},
	)

	// MailEvents counts mail events by kind and stage: published,
	// publish_failed, delivered, delivery_failed.
	MailEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_events_total",
			Help: "Mail events by kind and stage",
		},
		[]string{"kind", "stage"},
	)

	// RateLimitRejections counts requests refused by the token bucket.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)
