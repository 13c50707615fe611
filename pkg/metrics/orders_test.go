package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOrderMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)

	m.IncCreated()
	m.IncCreated()
	m.IncDeleted()
	m.IncDeleteVerifyFailed()
	m.IncNotificationFailed()
	m.IncStatusChanged("processing")
	m.IncStatusChanged("processing")
	m.IncStatusChanged("")
	m.IncSubmissionRejected("empty_cart")

	if got := testutil.ToFloat64(m.created); got != 2 {
		t.Fatalf("expected 2 created, got %v", got)
	}
	if got := testutil.ToFloat64(m.deleted); got != 1 {
		t.Fatalf("expected 1 deleted, got %v", got)
	}
	if got := testutil.ToFloat64(m.deleteVerifyFailed); got != 1 {
		t.Fatalf("expected 1 verification failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.statusChanged.WithLabelValues("processing")); got != 2 {
		t.Fatalf("expected 2 processing transitions, got %v", got)
	}
	if got := testutil.ToFloat64(m.statusChanged.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty status to normalize to unknown, got %v", got)
	}
}

func TestOrderMetricsNilSafe(t *testing.T) {
	var m *OrderMetrics
	m.IncCreated()
	m.IncDeleted()
	m.IncDeleteVerifyFailed()
	m.IncNotificationFailed()
	m.IncStatusChanged("shipped")
	m.IncSubmissionRejected("validation")

	unregistered := NewOrderMetrics(nil)
	unregistered.IncCreated()
}
