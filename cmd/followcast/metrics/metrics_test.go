package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/HatiCode/followcast/pkg/storage"
	"github.com/HatiCode/followcast/pkg/tracker"
)

// Shared metrics instance for the default-registry test to avoid duplicate registration
var testMetrics = New()

var _ tracker.Recorder = (*Metrics)(nil)

func TestNew(t *testing.T) {
	m := testMetrics

	if m.StoreOpDuration == nil {
		t.Error("StoreOpDuration should not be nil")
	}
	if m.StoreErrors == nil {
		t.Error("StoreErrors should not be nil")
	}
	if m.AnalyticsTotal == nil {
		t.Error("AnalyticsTotal should not be nil")
	}
	if m.Samples == nil {
		t.Error("Samples should not be nil")
	}
}

func TestObserveStoreOp(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveStoreOp("add", 0.002, nil)
	m.ObserveStoreOp("list", 0.001, nil)
	m.ObserveStoreOp("add", 0.003, fmt.Errorf("insert: %w", storage.ErrDuplicateKey))

	if count := testutil.CollectAndCount(m.StoreOpDuration); count != 2 {
		t.Errorf("duration series = %d, want 2", count)
	}
	if got := testutil.ToFloat64(m.StoreErrors.WithLabelValues("add", "duplicate_key")); got != 1 {
		t.Errorf("add/duplicate_key errors = %v, want 1", got)
	}
	if count := testutil.CollectAndCount(m.StoreErrors); count != 1 {
		t.Errorf("error series = %d, want 1", count)
	}
}

func TestRecordAnalytics(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordAnalytics("forecast", "ok")
	m.RecordAnalytics("forecast", "ok")
	m.RecordAnalytics("insight", "insufficient_data")

	if got := testutil.ToFloat64(m.AnalyticsTotal.WithLabelValues("forecast", "ok")); got != 2 {
		t.Errorf("forecast/ok = %v, want 2", got)
	}
	if count := testutil.CollectAndCount(m.AnalyticsTotal); count != 2 {
		t.Errorf("analytics series = %d, want 2", count)
	}
}

func TestSetSamples(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.SetSamples(12)
	m.SetSamples(5)

	if got := testutil.ToFloat64(m.Samples); got != 5 {
		t.Errorf("Samples = %v, want 5", got)
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{storage.ErrDuplicateKey, "duplicate_key"},
		{fmt.Errorf("get: %w", storage.ErrNotFound), "not_found"},
		{storage.ErrUnavailable, "unavailable"},
		{storage.ErrInvalidSample, "invalid"},
		{storage.ErrInvalidPage, "invalid"},
		{errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		if got := reason(tt.err); got != tt.want {
			t.Errorf("reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
