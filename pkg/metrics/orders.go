package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records counters for the order lifecycle.
type OrderMetrics struct {
	created            prometheus.Counter
	deleted            prometheus.Counter
	deleteVerifyFailed prometheus.Counter
	notificationFailed prometheus.Counter
	statusChanged      *prometheus.CounterVec
	submissionRejected *prometheus.CounterVec
}

// NewOrderMetrics registers the order lifecycle metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted successfully.",
	})
	deleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_deleted_total",
		Help: "Orders removed with verified absence.",
	})
	deleteVerifyFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_delete_verification_failures_total",
		Help: "Deletes that reported success but left the row present.",
	})
	notificationFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_notification_failures_total",
		Help: "Best-effort order notifications that failed to send.",
	})
	statusChanged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Successful status transitions by target status.",
	}, []string{"status"})
	submissionRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submissions_rejected_total",
		Help: "Submissions rejected before persistence, by reason.",
	}, []string{"reason"})
	reg.MustRegister(created, deleted, deleteVerifyFailed, notificationFailed, statusChanged, submissionRejected)
	return &OrderMetrics{
		created:            created,
		deleted:            deleted,
		deleteVerifyFailed: deleteVerifyFailed,
		notificationFailed: notificationFailed,
		statusChanged:      statusChanged,
		submissionRejected: submissionRejected,
	}
}

// IncCreated increments the created-orders counter.
func (m *OrderMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// IncDeleted increments the verified-delete counter.
func (m *OrderMetrics) IncDeleted() {
	if m == nil || m.deleted == nil {
		return
	}
	m.deleted.Inc()
}

// IncDeleteVerifyFailed increments the failed-verification counter.
func (m *OrderMetrics) IncDeleteVerifyFailed() {
	if m == nil || m.deleteVerifyFailed == nil {
		return
	}
	m.deleteVerifyFailed.Inc()
}

// IncNotificationFailed increments the failed-notification counter.
func (m *OrderMetrics) IncNotificationFailed() {
	if m == nil || m.notificationFailed == nil {
		return
	}
	m.notificationFailed.Inc()
}

// IncStatusChanged increments the transition counter for the target status.
func (m *OrderMetrics) IncStatusChanged(status string) {
	if m == nil || m.statusChanged == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.statusChanged.WithLabelValues(status).Inc()
}

// IncSubmissionRejected increments the rejected-submission counter for a reason.
func (m *OrderMetrics) IncSubmissionRejected(reason string) {
	if m == nil || m.submissionRejected == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.submissionRejected.WithLabelValues(reason).Inc()
}
