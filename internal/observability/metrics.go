// Package observability holds logging and the service's Prometheus
// metrics. All metrics register against the default registry via
// promauto; expose them by mounting promhttp on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ticketrouter"

// TicketsCreatedTotal counts created tickets by problem type.
var TicketsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tickets_created_total",
		Help:      "Total number of tickets created, by problem type.",
	},
	[]string{"problem_type"},
)

// DispatchOutcomesTotal counts dispatch decisions.
// Label:
//   - outcome: "assigned" or "unassigned" (no qualified agent)
var DispatchOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_outcomes_total",
		Help:      "Total number of dispatch decisions, by outcome.",
	},
	[]string{"outcome"},
)

// AccessDeniedTotal counts failed authorization predicates by operation.
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of denied ticket operations, by operation.",
	},
	[]string{"operation"},
)

// RepliesCreatedTotal counts replies appended to ticket threads.
var RepliesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replies_created_total",
		Help:      "Total number of replies appended to tickets.",
	},
)

// HTTPRequestDuration measures request latency by method, route and status.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)
