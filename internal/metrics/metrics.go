// Package metrics provides Prometheus instrumentation for the moderation
// engine. It exposes counters for classifications, offenses and sanitized
// messages, gauges describing the loaded lookup table, and a histogram for
// classification latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Classifications counts Classify calls, labeled by the method that
	// detected the message ("none" when nothing matched).
	Classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_classifications_total",
		Help: "Total number of messages classified",
	}, []string{"method"}) // method = "exact", "normalized", "regex", "substring", "none"

	// ClassifyLatency records Classify latency in seconds.
	ClassifyLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "moderation_classify_latency_seconds",
		Help:    "Message classification latency in seconds",
		Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
	})

	// Degraded is 1 while the matcher runs on the fallback term list.
	Degraded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "moderation_degraded",
		Help: "1 when the matcher is running without a lookup table",
	})

	// LUTEntries tracks the size of the active lookup table by kind.
	LUTEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "moderation_lut_entries",
		Help: "Entries in the active lookup table",
	}, []string{"kind"}) // kind = "exact", "normalized", "regex", "fallback"

	// Reloads counts matcher reloads by the mode they ended in.
	Reloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_reloads_total",
		Help: "Total number of matcher reloads",
	}, []string{"mode"}) // mode = "lut", "direct"

	// OffensesRecorded counts offenses recorded by the escalation engine.
	OffensesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_offenses_recorded_total",
		Help: "Total number of offenses recorded",
	})

	// TimeoutsApplied counts escalation outcomes by kind.
	TimeoutsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_timeouts_applied_total",
		Help: "Total number of timeouts applied",
	}, []string{"kind"}) // kind = "timed", "permanent", "warning"

	// StoreErrors counts offense store failures by operation.
	StoreErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_store_errors_total",
		Help: "Total number of offense store errors",
	}, []string{"op"})

	// SanitizedMessages counts messages masked by the sanitizer.
	SanitizedMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_sanitized_messages_total",
		Help: "Total number of messages masked by the sanitizer",
	})

	// MessagesTotal counts reviewed messages by the action taken.
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_messages_total",
		Help: "Total number of messages reviewed",
	}, []string{"action"}) // action = "allow", "sanitize", "escalate", "suppress", "error"
)

func init() {
	prometheus.MustRegister(
		Classifications,
		ClassifyLatency,
		Degraded,
		LUTEntries,
		Reloads,
		OffensesRecorded,
		TimeoutsApplied,
		StoreErrors,
		SanitizedMessages,
		MessagesTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
