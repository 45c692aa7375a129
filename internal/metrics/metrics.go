package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsAdmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participation_requests_admitted_total",
			Help: "Participation requests created, by initial status",
		},
		[]string{"status"},
	)

	moderationDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participation_moderation_decisions_total",
			Help: "Requests decided by owner moderation, by resulting status",
		},
		[]string{"status"},
	)

	conflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participation_conflicts_total",
			Help: "Operations rejected because of state or capacity conflicts",
		},
		[]string{"operation"},
	)

	eventTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participation_event_transitions_total",
			Help: "Applied event lifecycle actions",
		},
		[]string{"action"},
	)

	statsCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participation_stats_calls_total",
			Help: "Calls to the stats collector, by operation and result",
		},
		[]string{"operation", "result"},
	)

	statsCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "participation_stats_call_duration_seconds",
			Help:    "Stats collector call latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	outboxPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participation_outbox_messages_total",
			Help: "Outbox relay outcomes",
		},
		[]string{"result"},
	)
)

func RecordAdmission(status string) {
	requestsAdmittedTotal.WithLabelValues(status).Inc()
}

func RecordModeration(status string, n int) {
	if n <= 0 {
		return
	}
	moderationDecisionsTotal.WithLabelValues(status).Add(float64(n))
}

func RecordConflict(operation string) {
	conflictsTotal.WithLabelValues(operation).Inc()
}

func RecordTransition(action string) {
	eventTransitionsTotal.WithLabelValues(action).Inc()
}

// RecordStatsCall records one stats collector round trip.
func RecordStatsCall(operation string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	statsCallsTotal.WithLabelValues(operation, result).Inc()
	statsCallDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func RecordOutbox(result string) {
	outboxPublishedTotal.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
