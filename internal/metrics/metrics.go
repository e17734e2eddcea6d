package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StartRequestsTotal counts start attempts by outcome: invalid, accepted, rejected, failed
	StartRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerberus_watch_start_requests_total",
			Help: "Total number of simulation start attempts by outcome",
		},
		[]string{"outcome"},
	)

	// StartRequestDuration tracks the latency of the backend start call in seconds
	StartRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cerberus_watch_start_request_duration_seconds",
			Help:    "Latency of the backend start call in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// SnapshotsTotal counts rendered snapshots
	SnapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cerberus_watch_snapshots_total",
			Help: "Total number of snapshots received and rendered",
		},
	)

	// InconsistentSnapshotsTotal counts snapshots whose normal+attack packets differ from the total
	InconsistentSnapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cerberus_watch_inconsistent_snapshots_total",
			Help: "Total number of snapshots with a packet split that does not add up",
		},
	)

	// StreamErrorsTotal counts subscriptions ended by an error, by kind: transport, malformed
	StreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerberus_watch_stream_errors_total",
			Help: "Total number of stream subscriptions ended by an error",
		},
		[]string{"kind"},
	)

	// SessionsCompletedTotal counts runs that reached a terminal snapshot
	SessionsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cerberus_watch_sessions_completed_total",
			Help: "Total number of simulation runs observed to completion",
		},
	)

	// OpenSubscriptions is the number of live stream subscriptions (0 or 1)
	OpenSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cerberus_watch_open_subscriptions",
			Help: "Number of open stream subscriptions",
		},
	)

	// ViewClients is the number of operator SSE clients attached to the dashboard stream
	ViewClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cerberus_watch_view_clients",
			Help: "Number of operator clients streaming the dashboard",
		},
	)
)

func RecordStart(outcome string) {
	StartRequestsTotal.WithLabelValues(outcome).Inc()
}

func RecordStartDuration(seconds float64) {
	StartRequestDuration.Observe(seconds)
}

func RecordSnapshot(consistent bool) {
	SnapshotsTotal.Inc()
	if !consistent {
		InconsistentSnapshotsTotal.Inc()
	}
}

func RecordStreamError(kind string) {
	StreamErrorsTotal.WithLabelValues(kind).Inc()
}

func RecordSessionCompleted() {
	SessionsCompletedTotal.Inc()
}

func RecordSubscriptionOpened() {
	OpenSubscriptions.Inc()
}

func RecordSubscriptionClosed() {
	OpenSubscriptions.Dec()
}
