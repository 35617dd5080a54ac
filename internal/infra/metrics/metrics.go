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
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	emailsAttempted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_attempted_total",
			Help: "Email send attempts by outcome and failure kind",
		},
		[]string{"outcome", "kind"},
	)

	dispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Duration of bulk template dispatches in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	dispatchRecipients = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_recipients_total",
			Help: "Recipients processed by bulk dispatches",
		},
		[]string{"outcome"},
	)

	eventPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interaction_event_publish_errors_total",
			Help: "Interaction events that could not be published",
		},
	)
)

func RecordEmailAttempt(kind string, ok bool) {
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	if kind == "" {
		kind = "none"
	}
	emailsAttempted.WithLabelValues(outcome, kind).Inc()
}

func RecordDispatch(seconds float64, sent, failed int) {
	dispatchDuration.Observe(seconds)
	dispatchRecipients.WithLabelValues("sent").Add(float64(sent))
	dispatchRecipients.WithLabelValues("failed").Add(float64(failed))
}

func RecordEventPublishError() {
	eventPublishErrors.Inc()
}
