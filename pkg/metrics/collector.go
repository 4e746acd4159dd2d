// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of processed updates labeled by kind and status",
		},
		[]string{"kind", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Duration of update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	conversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_conversions_total",
			Help: "Total number of conversions labeled by direction and status",
		},
		[]string{"direction", "status"},
	)
	quoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_quote_requests_total",
			Help: "Total number of quote-service requests labeled by status",
		},
		[]string{"status"},
	)
	pendingConversions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_pending_conversions",
			Help: "Number of chats currently waiting for a conversion amount",
		},
	)
)

// RecordUpdate increments the update counter and records its duration.
func RecordUpdate(kind, status string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	updatesTotal.WithLabelValues(kind, status).Inc()
	updateDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordConversion tracks a conversion attempt. Direction is "try_to_coin"
// or "coin_to_try"; status is "ok", "invalid_input", or "error".
func RecordConversion(direction, status string) {
	if direction == "" {
		direction = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	conversionsTotal.WithLabelValues(direction, status).Inc()
}

// RecordQuoteRequest tracks a quote-service round-trip.
func RecordQuoteRequest(status string) {
	if status == "" {
		status = "unknown"
	}

	quoteRequestsTotal.WithLabelValues(status).Inc()
}

// PendingConversionStarted bumps the waiting-chat gauge.
func PendingConversionStarted() {
	pendingConversions.Inc()
}

// PendingConversionFinished drops the waiting-chat gauge.
func PendingConversionFinished() {
	pendingConversions.Dec()
}
