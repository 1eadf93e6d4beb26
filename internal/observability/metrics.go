package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors exposed on /metrics.
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	DocumentEvents    *prometheus.CounterVec
	EmailDeliveries   *prometheus.CounterVec
	ShareViews        *prometheus.CounterVec
	RateLimitRejected prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bill_http_requests_total",
			Help: "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bill_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DocumentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bill_document_events_total",
			Help: "Estimate and invoice lifecycle events by entity type and action.",
		}, []string{"entity_type", "action"}),
		EmailDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bill_email_deliveries_total",
			Help: "Outgoing email attempts by entity type and outcome.",
		}, []string{"entity_type", "outcome"}),
		ShareViews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bill_share_views_total",
			Help: "Public share link views by entity type.",
		}, []string{"entity_type"}),
		RateLimitRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bill_share_rate_limited_total",
			Help: "Share link requests rejected by the rate limiter.",
		}),
	}

	prometheus.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.DocumentEvents,
		m.EmailDeliveries,
		m.ShareViews,
		m.RateLimitRejected,
	)
	return m
}
