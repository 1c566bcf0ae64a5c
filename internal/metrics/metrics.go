// Package metrics defines and registers all custom Prometheus metrics for the
// job tracking service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsActive is the number of sessions currently receiving fixes.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Number of active tracking sessions.",
	},
)

// SessionsStartedTotal counts sessions that reached the active state.
// Label:
//   - role: the participant whose device owns the session ("customer" or "mechanic")
var SessionsStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Total number of tracking sessions started, by owner role.",
	},
	[]string{"role"},
)

// SessionsStoppedTotal counts explicit stops of existing sessions.
var SessionsStoppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_stopped_total",
		Help:      "Total number of tracking sessions stopped by a caller.",
	},
)

// StartFailuresTotal counts start attempts that did not produce a session.
// Label:
//   - reason: "invalid_input", "job_lookup", "permission_denied", "location_unavailable", "cancelled", "superseded"
var StartFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "start_failures_total",
		Help:      "Total number of failed tracking starts, by reason.",
	},
	[]string{"reason"},
)

// ── Fix metrics ───────────────────────────────────────────────────────────────

// FixesProcessedTotal counts fixes applied to a session.
// Labels:
//   - role:   participant the fix belongs to
//   - source: "watch" (provider stream) or "api" (posted by a device)
var FixesProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fixes_processed_total",
		Help:      "Total number of location fixes applied to sessions.",
	},
	[]string{"role", "source"},
)

// FixesDuplicateTotal counts fixes skipped because they were already applied.
var FixesDuplicateTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fixes_duplicate_total",
		Help:      "Total number of duplicate fixes skipped.",
	},
)

// StreamErrorsTotal counts provider stream failures that deactivated a session.
var StreamErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_errors_total",
		Help:      "Total number of location stream errors.",
	},
)

// GeocodeFailuresTotal counts reverse-geocoding lookups that left the address empty.
var GeocodeFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_failures_total",
		Help:      "Total number of failed reverse-geocoding lookups.",
	},
)

// ParticipantDistanceMeters observes the customer/mechanic distance after each recompute.
var ParticipantDistanceMeters = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "participant_distance_meters",
		Help:      "Great-circle distance between customer and mechanic.",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000},
	},
)

// ── Dispatcher metrics ────────────────────────────────────────────────────────

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of location events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventProcessingDuration measures how long a single location event takes to apply.
// Label:
//   - outcome: "ok" or "error"
var EventProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_processing_duration_seconds",
		Help:      "Duration of location event processing from dequeue to publish.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)
