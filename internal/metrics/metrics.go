package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the observability counters produced by the recording and
// sync pipeline.
type Metrics struct {
	FixesReceived prometheus.Counter
	FixesAccepted prometheus.Counter
	FixesRejected *prometheus.CounterVec

	StopsDetected *prometheus.CounterVec

	SyncBatchesAttempted prometheus.Counter
	SyncBatchesSucceeded prometheus.Counter
	SyncBatchesFailed    prometheus.Counter
	PendingSync          prometheus.Gauge
}

// New creates the metric set registered against reg. Passing a fresh
// registry keeps parallel tests from colliding on the default one.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FixesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "walks_fixes_received_total",
			Help: "Raw GPS fixes delivered to the recorder",
		}),
		FixesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "walks_fixes_accepted_total",
			Help: "Fixes that passed the accuracy and plausibility filter",
		}),
		FixesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "walks_fixes_rejected_total",
			Help: "Fixes dropped by the filter, by reason",
		}, []string{"reason"}),
		StopsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "walks_stops_detected_total",
			Help: "Auto-detected stop events, by label",
		}, []string{"label"}),
		SyncBatchesAttempted: factory.NewCounter(prometheus.CounterOpts{
			Name: "walks_sync_batches_attempted_total",
			Help: "Upsert batches sent to the remote authority",
		}),
		SyncBatchesSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "walks_sync_batches_succeeded_total",
			Help: "Upsert batches acknowledged by the remote authority",
		}),
		SyncBatchesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "walks_sync_batches_failed_total",
			Help: "Upsert batches that failed and stayed queued",
		}),
		PendingSync: factory.NewGauge(prometheus.GaugeOpts{
			Name: "walks_sync_pending_records",
			Help: "Records currently waiting in the sync queue",
		}),
	}
}
