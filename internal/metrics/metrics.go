// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request duration (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	// Mail deliveries by kind (notification, reply, test) and result (sent, failed)
	MailSentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_sent_total",
			Help: "Total number of mail deliveries attempted",
		},
		[]string{"kind", "result"},
	)

	// Relay session duration (seconds)
	MailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mail_send_duration_seconds",
			Help:    "SMTP relay session duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"kind"},
	)

	// Contact form submissions
	InquirySubmittedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inquiry_submitted_total",
			Help: "Total number of contact form submissions stored",
		},
	)

	// Requests rejected by a rate limiter
	RateLimitedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Total number of requests rejected by a rate limiter",
		},
		[]string{"scope"},
	)
)

// RecordHTTPRequestDuration records one served request.
func RecordHTTPRequestDuration(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordMailSent records one relay session outcome.
func RecordMailSent(kind, result string, duration time.Duration) {
	MailSentCount.WithLabelValues(kind, result).Inc()
	MailSendDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// IncrementInquirySubmitted counts a stored contact form submission.
func IncrementInquirySubmitted() {
	InquirySubmittedCount.Inc()
}

// IncrementRateLimited counts a rejected request.
func IncrementRateLimited(scope string) {
	RateLimitedCount.WithLabelValues(scope).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
