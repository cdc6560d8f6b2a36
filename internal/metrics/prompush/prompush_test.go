// Package prompush_test contains unit tests for the prompush package.
package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"matomo2umami/internal/metrics"
)

// readCounterValue reads the current value of a Counter for assertions.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	sum := m.GetSummary()
	return sum.GetSampleCount(), sum.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing url", jobName: "m2u", gatewayURL: "", wantErr: true},
		{name: "default job name", jobName: "", gatewayURL: "http://gw:9091", wantJobName: "matomo2umami"},
		{name: "explicit job name", jobName: "nightly", gatewayURL: "http://gw:9091", wantJobName: "nightly"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tc.jobName, tc.gatewayURL)
			if tc.wantErr {
				if err == nil {
					t.Fatal("NewBackend succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend: %v", err)
			}
			if b.jobName != tc.wantJobName {
				t.Errorf("jobName = %q, want %q", b.jobName, tc.wantJobName)
			}
		})
	}
}

func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("m2u", "http://gw:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter("migration_stage_total", 1, metrics.Labels{"stage": "sessions", "status": "success"})
	b.IncCounter("migration_stage_total", 1, metrics.Labels{"stage": "sessions", "status": "success"})
	b.IncCounter("migration_records_total", 7, metrics.Labels{"kind": "events"})
	b.IncCounter("migration_batches_total", 3, nil)
	b.IncCounter("unknown_metric", 99, nil) // ignored

	if got := readCounterValue(t, b.stageCounter.WithLabelValues("sessions", "success")); got != 2 {
		t.Errorf("stage counter = %v, want 2", got)
	}
	if got := readCounterValue(t, b.recordCounter.WithLabelValues("events")); got != 7 {
		t.Errorf("record counter = %v, want 7", got)
	}
	if got := readCounterValue(t, b.batchCounter); got != 3 {
		t.Errorf("batch counter = %v, want 3", got)
	}
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("m2u", "http://gw:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.ObserveHistogram("migration_stage_duration_seconds", 1.5, metrics.Labels{"stage": "events", "status": "success"})
	b.ObserveHistogram("migration_stage_duration_seconds", 2.5, metrics.Labels{"stage": "events", "status": "success"})
	b.ObserveHistogram("unrelated", 9, nil) // ignored

	count, sum := readSummaryCountSum(t, b.stageDuration, "events", "success")
	if count != 2 {
		t.Errorf("summary count = %d, want 2", count)
	}
	if sum < 4.0-0.001 || sum > 4.0+0.001 {
		t.Errorf("summary sum = %v, want ~4.0", sum)
	}
}

func TestFlush_PushesToGateway(t *testing.T) {
	t.Parallel()

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("m2u", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter("migration_batches_total", 1, nil)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if gotPath != "/metrics/job/m2u" {
		t.Errorf("push path = %q, want /metrics/job/m2u", gotPath)
	}
}
