// Package metrics defines all custom Prometheus metrics for the command
// center. It is the single source of truth for metric names, labels, and help
// strings. Metrics self-register with the default registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "glcc"

// ── Refresh cycle metrics ─────────────────────────────────────────────────────

// RefreshCyclesTotal counts completed refresh cycles.
// Label:
//   - trigger: "scheduled" or "manual"
var RefreshCyclesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_cycles_total",
		Help:      "Total number of completed refresh cycles, by trigger.",
	},
	[]string{"trigger"},
)

// RefreshCycleDuration measures the wall-clock time of a full refresh cycle.
var RefreshCycleDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_cycle_duration_seconds",
		Help:      "Duration of one complete refresh cycle.",
		Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	},
)

// SchedulerSkipsTotal counts trigger firings dropped because a cycle was
// already in flight.
var SchedulerSkipsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_skips_total",
		Help:      "Total number of scheduler firings skipped due to an in-flight cycle.",
	},
)

// ── Lookup metrics ────────────────────────────────────────────────────────────

// LookupsTotal counts individual backend lookups.
// Labels:
//   - backend: backend name (e.g. "domestic", "scraper")
//   - result: "success", "unavailable", "not_found", "error"
var LookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookups_total",
		Help:      "Total number of backend lookups, by backend and result.",
	},
	[]string{"backend", "result"},
)

// LookupDuration measures single-lookup latency per backend. The scraping
// backend is expected to dominate the upper buckets.
var LookupDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lookup_duration_seconds",
		Help:      "Duration of a single backend lookup.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"backend"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// ChangeEventsTotal counts change events queued for notification.
var ChangeEventsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "change_events_total",
		Help:      "Total number of status-change events queued for delivery.",
	},
)

// NotificationsTotal counts delivery attempts.
// Labels:
//   - kind: "status_change", "delivered", "error"
//   - result: "sent", "failed", "deduplicated"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notification deliveries, by kind and result.",
	},
	[]string{"kind", "result"},
)

// NotifyQueueDepth tracks events waiting in each dispatcher worker channel.
var NotifyQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notify_queue_depth",
		Help:      "Current number of events pending in each notification worker channel.",
	},
	[]string{"worker_id"},
)

// ── Package metrics ───────────────────────────────────────────────────────────

// PackagesRegisteredTotal counts newly registered packages by carrier.
var PackagesRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packages_registered_total",
		Help:      "Total number of packages registered, by carrier.",
	},
	[]string{"carrier"},
)
