package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Clinical workflow metrics
	AssessmentsSubmitted *prometheus.CounterVec
	FlagsRaised          *prometheus.CounterVec
	SafetyPlanResolved   prometheus.Counter
	IntakesCreated       prometheus.Counter
	PatientsDeactivated  prometheus.Counter
	RemindersScheduled   *prometheus.CounterVec
	MinutesLogged        *prometheus.CounterVec

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram

	// Database metrics
	DatabaseOperations *prometheus.CounterVec

	// Worker metrics
	DigestEmailsSent   prometheus.Counter
	DigestEmailsFailed prometheus.Counter
	AuditLogsPurged    prometheus.Counter
}

// NewMetrics creates all application metrics and registers them with reg.
// A nil reg registers with the default prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		AssessmentsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_submitted_total",
			Help:      "Total number of assessment submissions",
		}, []string{"kind"}),
		FlagsRaised: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patient_flags_raised_total",
			Help:      "Total number of patient flags newly raised",
		}, []string{"flag"}),
		SafetyPlanResolved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "safety_plans_resolved_total",
			Help:      "Total number of resolved safety plans",
		}),
		IntakesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intakes_created_total",
			Help:      "Total number of intake forms",
		}),
		PatientsDeactivated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patients_deactivated_total",
			Help:      "Total number of patient deactivations",
		}),
		RemindersScheduled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_scheduled_total",
			Help:      "Reminder scheduling attempts by result",
		}, []string{"status"}),
		MinutesLogged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minutes_logged_total",
			Help:      "Billable minutes appended to the tracking ledger",
		}, []string{"activity"}),

		OutboxEventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),

		DigestEmailsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_digest_emails_sent_total",
			Help:      "Overdue reminder digests delivered",
		}),
		DigestEmailsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_digest_emails_failed_total",
			Help:      "Overdue reminder digests that could not be delivered",
		}),
		AuditLogsPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_logs_purged_total",
			Help:      "Audit log rows removed by retention cleanup",
		}),
	}
}

// NewNop returns metrics bound to a throwaway registry.
func NewNop() *Metrics {
	return NewMetrics("nop", prometheus.NewRegistry())
}
