package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_classifications_total",
			Help: "Emails classified, by category and decision source",
		},
		[]string{"category", "source"},
	)

	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_replies_total",
			Help: "Suggested replies generated, by responder",
		},
		[]string{"responder"},
	)

	TriageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_structured_requests_total",
			Help: "Structured triage calls, by outcome",
		},
		[]string{"outcome"},
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "triage_processing_duration_seconds",
			Help:    "Time to classify an email and generate its reply",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"method", "path", "status"},
	)
)

func RecordClassification(category, source, responder string, d time.Duration) {
	ClassificationsTotal.WithLabelValues(category, source).Inc()
	RepliesTotal.WithLabelValues(responder).Inc()
	ProcessingDuration.Observe(d.Seconds())
}

func RecordTriage(outcome string) {
	TriageRequestsTotal.WithLabelValues(outcome).Inc()
}

func RecordHTTPRequest(method, path string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}
