// Package ratelimit throttles repetitive log lines, such as one per rejected
// telemetry message, while still counting every occurrence.
package ratelimit

import (
	"sync/atomic"
	"time"
)

// Counter counts events and allows a log line at most once per interval.
// It is safe for concurrent use; the zero value logs every event.
type Counter struct {
	interval time.Duration
	now      func() time.Time
	lastLog  atomic.Int64
	total    atomic.Uint64
}

// NewCounter returns a Counter permitting one log per interval. A zero or
// negative interval disables throttling.
func NewCounter(interval time.Duration) *Counter {
	return &Counter{interval: interval, now: time.Now}
}

// Inc records one event. It returns the running total and whether the caller
// may log now; the first event always logs.
func (c *Counter) Inc() (uint64, bool) {
	if c == nil {
		return 0, false
	}
	total := c.total.Add(1)
	if c.interval <= 0 || c.now == nil {
		return total, true
	}
	now := c.now().UnixNano()
	last := c.lastLog.Load()
	if last != 0 && now-last < c.interval.Nanoseconds() {
		return total, false
	}
	return total, c.lastLog.CompareAndSwap(last, now)
}

// Total reports how many events have been recorded.
func (c *Counter) Total() uint64 {
	if c == nil {
		return 0
	}
	return c.total.Load()
}
