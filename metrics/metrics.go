// Package metrics exposes Prometheus instrumentation for the correlation
// pipeline. All collectors are registered with the default registry via
// promauto and served from the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "watchtower"

var (
	// EventsIngested counts stored events by type.
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_ingested_total",
		Help:      "Total number of security events ingested, by event type.",
	}, []string{"type"})

	// AlertsGenerated counts emitted alerts by detector kind and severity.
	AlertsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_generated_total",
		Help:      "Total number of alerts generated, by kind and severity.",
	}, []string{"kind", "severity"})

	// CooldownSuppressions counts alerts swallowed by an active cooldown.
	CooldownSuppressions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cooldown_suppressions_total",
		Help:      "Total number of alerts suppressed by cooldown, by kind.",
	}, []string{"kind"})

	// EvaluationErrors counts condition evaluation failures by rule.
	EvaluationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluation_errors_total",
		Help:      "Total number of pattern condition evaluation errors, by rule.",
	}, []string{"rule"})

	// DispatchAttempts counts channel sends, successful or not.
	DispatchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_attempts_total",
		Help:      "Total number of alert dispatch attempts, by channel.",
	}, []string{"channel"})

	// DispatchFailures counts failed channel sends.
	DispatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_failures_total",
		Help:      "Total number of failed alert dispatches, by channel.",
	}, []string{"channel"})

	// DispatchDropped counts alerts dropped because the queue was full.
	DispatchDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_dropped_total",
		Help:      "Total number of alerts dropped due to a full dispatch queue.",
	})

	// ProcessingDuration observes end-to-end detector latency per event.
	ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_processing_duration_seconds",
		Help:      "Time spent running all detectors for a single event.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
	})

	// EventStoreSize tracks the current number of buffered events.
	EventStoreSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_store_size",
		Help:      "Current number of events held in the rolling history.",
	})

	// AlertStoreSize tracks the current number of buffered alerts.
	AlertStoreSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "alert_store_size",
		Help:      "Current number of alerts held in memory.",
	})
)
