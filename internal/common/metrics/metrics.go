// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_turns_processed_total",
			Help: "Total number of conversation turns processed",
		},
		[]string{"intent", "flow"},
	)

	TurnsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_turns_failed_total",
			Help: "Total number of conversation turns that ended in an error",
		},
		[]string{"error_code"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chatbot_turn_duration_seconds",
			Help: "Duration of turn processing in seconds",
		},
		[]string{"intent"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatbot_active_sessions",
			Help: "Number of live conversation sessions",
		},
	)

	RetrievalResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_retrieval_results",
			Help:    "Number of passages returned per retrieval query",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"index"},
	)

	AnswerCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_answer_cache_total",
			Help: "Answer cache lookups partitioned by outcome",
		},
		[]string{"outcome"},
	)

	EscalationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_escalations_created_total",
			Help: "Total escalation tickets created",
		},
		[]string{"reason", "priority"},
	)

	AppointmentsBooked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_appointments_booked_total",
			Help: "Total appointments booked, changed or cancelled",
		},
		[]string{"action", "service_type"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_notifications_sent_total",
			Help: "Confirmation emails and escalation alerts by outcome",
		},
		[]string{"channel", "outcome"},
	)
)
