package ui

import (
	"strings"
	"testing"
	"time"
)

func TestLatencyTrackerPercentiles(t *testing.T) {
	tr := NewLatencyTracker(4)
	for _, d := range []time.Duration{50, 10, 40, 20, 30} {
		tr.Observe(d * time.Millisecond)
	}
	snap := tr.Snapshot()
	if snap.N != 4 {
		t.Fatalf("expected ring to hold 4 samples, got %d", snap.N)
	}
	if snap.P50 != 30*time.Millisecond {
		t.Fatalf("expected p50=30ms, got %v", snap.P50)
	}
	// int((4-1)*0.99) selects the third sample of four
	if snap.P99 != 30*time.Millisecond {
		t.Fatalf("expected p99=30ms, got %v", snap.P99)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDispatch(time.Second)
	m.ObserveRemoved(3)
	m.ObservePanic()
	if m.Dispatched() != 0 || m.Removed() != 0 || m.Panics() != 0 {
		t.Fatalf("expected nil metrics to report zero")
	}
}

func TestMetricsSummary(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 1500; i++ {
		m.ObserveDispatch(2 * time.Millisecond)
	}
	m.ObserveRemoved(2)
	got := m.Summary()
	if !strings.Contains(got, "dispatched=1,500") || !strings.Contains(got, "removed=2") {
		t.Fatalf("unexpected summary %q", got)
	}
	if !strings.Contains(got, "p50=2ms") {
		t.Fatalf("expected p50 lateness in summary, got %q", got)
	}
}
