// Package metrics defines and registers all custom Prometheus metrics for the
// identity sync service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry via promauto at
// package load; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "idsync"

// ── Sync handler metrics ─────────────────────────────────────────────────────

// SyncProcessedTotal counts lifecycle events that completed processing.
// Label:
//   - action: the store mutation performed ("created", "updated", "deleted")
var SyncProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_processed_total",
		Help:      "Total number of identity lifecycle events successfully synced.",
	},
	[]string{"action"},
)

// SyncErrorsTotal counts events that failed processing.
// Label:
//   - reason: short failure description ("user_not_found", "upsert_failed", "store_failed", "delete_failed")
var SyncErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_errors_total",
		Help:      "Total number of identity lifecycle events that failed processing.",
	},
	[]string{"reason"},
)

// SyncStaleSkippedTotal counts updated events skipped by the optional
// stale-event guard.
var SyncStaleSkippedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_stale_skipped_total",
		Help:      "Total number of update events skipped because they were older than the stored record.",
	},
)

// SyncDuration measures how long a single handler invocation takes.
// Label:
//   - action: "created", "updated" or "deleted"
var SyncDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of sync handler invocations, from dispatch to store write.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"action"},
)

// ── Bulk reconciliation metrics ──────────────────────────────────────────────

// BulkItemsTotal counts per-ID outcomes of bulk reconciliation runs.
// Label:
//   - result: "success" or "failure"
var BulkItemsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bulk_items_total",
		Help:      "Total number of bulk reconciliation items, labelled by result.",
	},
	[]string{"result"},
)

// ── Event bus metrics ────────────────────────────────────────────────────────

// EventsPublishedTotal counts events accepted by the bus for delivery.
// Label:
//   - event: the event name (e.g. "identity.updated")
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of events published to the bus, by event name.",
	},
	[]string{"event"},
)

// EventsIgnoredTotal counts inbound deliveries for event types this pipeline
// does not consume (a no-op success by contract).
// Label:
//   - event: the unrecognized event name
var EventsIgnoredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_ignored_total",
		Help:      "Total number of inbound events ignored because their type is not consumed here.",
	},
	[]string{"event"},
)

// RelayQueueDepth tracks the number of deliveries waiting in each relay
// worker channel.
// Label:
//   - worker_id: numeric worker index ("0", "1", …)
var RelayQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "relay_queue_depth",
		Help:      "Current number of deliveries pending in each relay worker channel.",
	},
	[]string{"worker_id"},
)
