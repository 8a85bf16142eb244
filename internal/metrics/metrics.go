// Package metrics holds the Prometheus collectors of the persistence layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "graphdeck"

// Metrics groups every collector. Build one per registry.
type Metrics struct {
	Requests        *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
	QueueSticky     prometheus.Gauge
	CacheLookups    *prometheus.CounterVec
	DebounceFlushes *prometheus.CounterVec
	UnsavedRecords  prometheus.Counter
	PendingWrites   prometheus.Gauge
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "requests_total",
			Help:      "Requests answered by the serialization queue.",
		}, []string{"mode", "outcome"}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Requests waiting behind the one in flight.",
		}),
		QueueSticky: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "sticky_error",
			Help:      "1 while the queue refuses requests after a failed write.",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Entity lookups served from the mirror (hit) or fetched (miss).",
		}, []string{"kind", "result"}),
		DebounceFlushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "debounce",
			Name:      "flushes_total",
			Help:      "Coalesced writes flushed, by reason.",
		}, []string{"category", "reason"}),
		UnsavedRecords: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unsaved_records_total",
			Help:      "Writes recorded in the unsaved-update log.",
		}),
		PendingWrites: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_writes",
			Help:      "Writes issued but not yet answered.",
		}),
	}
}

// Discard returns collectors bound to a private registry, for callers that
// do not export metrics.
func Discard() *Metrics {
	return New(prometheus.NewRegistry())
}
