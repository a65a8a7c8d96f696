// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dialogStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_steps_total",
			Help: "Dialogue steps processed, labeled by state and outcome",
		},
		[]string{"state", "outcome"},
	)
	dialogTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_transitions_total",
			Help: "Dialogue state transitions",
		},
		[]string{"from", "to"},
	)
	geocodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Reverse-geocoding lookups by status (ok, not_found, error)",
		},
		[]string{"status"},
	)
	geocodeQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geocode_queue_depth",
			Help: "Lookup requests currently waiting in the geocode worker queue",
		},
	)
	outboundRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbound_send_retries_total",
			Help: "Telegram send attempts that had to be retried",
		},
	)
	outboundFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbound_send_failures_total",
			Help: "Telegram sends dropped after exhausting the retry budget",
		},
	)
	admissionDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admission_drops_total",
			Help: "Inbound events dropped by per-chat admission control",
		},
	)
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Data service calls by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// RecordDialogStep counts one application of the transition function.
func RecordDialogStep(state, outcome string) {
	dialogStepsTotal.WithLabelValues(state, outcome).Inc()
}

// RecordTransition counts a dialogue state transition.
func RecordTransition(from, to string) {
	dialogTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordGeocode counts a completed reverse-geocoding lookup.
func RecordGeocode(status string) {
	geocodeRequestsTotal.WithLabelValues(status).Inc()
}

// SetGeocodeQueueDepth reports the current lookup queue length.
func SetGeocodeQueueDepth(depth int) {
	geocodeQueueDepth.Set(float64(depth))
}

// RecordOutboundRetry counts one retried send attempt.
func RecordOutboundRetry() {
	outboundRetriesTotal.Inc()
}

// RecordOutboundFailure counts a permanently dropped send.
func RecordOutboundFailure() {
	outboundFailuresTotal.Inc()
}

// RecordAdmissionDrop counts a throttled inbound event.
func RecordAdmissionDrop() {
	admissionDropsTotal.Inc()
}

// RecordBackendRequest counts a data service call.
func RecordBackendRequest(operation, status string) {
	backendRequestsTotal.WithLabelValues(operation, status).Inc()
}
