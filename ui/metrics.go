package ui

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// LatencyTracker keeps a bounded ring of durations for percentile estimates.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	count   int
	idx     int
}

func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 256
	}
	return &LatencyTracker{samples: make([]time.Duration, size)}
}

func (t *LatencyTracker) Observe(d time.Duration) {
	if t == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	t.mu.Lock()
	t.samples[t.idx] = d
	t.idx = (t.idx + 1) % len(t.samples)
	if t.count < len(t.samples) {
		t.count++
	}
	t.mu.Unlock()
}

type LatencySnapshot struct {
	P50 time.Duration
	P99 time.Duration
	N   int
}

func (t *LatencyTracker) Snapshot() LatencySnapshot {
	if t == nil {
		return LatencySnapshot{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count == 0 {
		return LatencySnapshot{}
	}
	values := make([]time.Duration, t.count)
	copy(values, t.samples[:t.count])
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	p50 := values[t.count/2]
	p99 := values[int(float64(t.count-1)*0.99)]
	return LatencySnapshot{P50: p50, P99: p99, N: t.count}
}

// Metrics counts delayed-callback activity on a surface. Lateness is the gap
// between a callback's due time and the moment it ran on the loop.
type Metrics struct {
	lateness   *LatencyTracker
	dispatched atomic.Uint64
	removed    atomic.Uint64
	panics     atomic.Uint64
}

func NewMetrics() *Metrics {
	return &Metrics{lateness: NewLatencyTracker(512)}
}

func (m *Metrics) ObserveDispatch(late time.Duration) {
	if m == nil {
		return
	}
	m.dispatched.Add(1)
	m.lateness.Observe(late)
}

func (m *Metrics) ObserveRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.removed.Add(uint64(n))
}

func (m *Metrics) ObservePanic() {
	if m == nil {
		return
	}
	m.panics.Add(1)
}

func (m *Metrics) Dispatched() uint64 {
	if m == nil {
		return 0
	}
	return m.dispatched.Load()
}

func (m *Metrics) Removed() uint64 {
	if m == nil {
		return 0
	}
	return m.removed.Load()
}

func (m *Metrics) Panics() uint64 {
	if m == nil {
		return 0
	}
	return m.panics.Load()
}

func (m *Metrics) LatenessSnapshot() LatencySnapshot {
	if m == nil {
		return LatencySnapshot{}
	}
	return m.lateness.Snapshot()
}

// Summary renders a one-line report for the shutdown log.
func (m *Metrics) Summary() string {
	if m == nil {
		return "no metrics"
	}
	late := m.LatenessSnapshot()
	return fmt.Sprintf("dispatched=%s removed=%s panics=%s lateness p50=%s p99=%s",
		humanize.Comma(int64(m.Dispatched())),
		humanize.Comma(int64(m.Removed())),
		humanize.Comma(int64(m.Panics())),
		late.P50.Round(time.Millisecond),
		late.P99.Round(time.Millisecond))
}
