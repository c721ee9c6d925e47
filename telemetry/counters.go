package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// Counter names as they appear in CodecCounters.DebugString and in events.
const (
	CounterCodecInit            = "cic"
	CounterCodecRelease         = "crc"
	CounterOutputFormatChanged  = "ofc"
	CounterOutputBuffersChanged = "obc"
	CounterRendered             = "ren"
	CounterSkipped              = "sob"
	CounterDropped              = "dob"
)

var counterOrder = []string{
	CounterCodecInit,
	CounterCodecRelease,
	CounterOutputFormatChanged,
	CounterOutputBuffersChanged,
	CounterRendered,
	CounterSkipped,
	CounterDropped,
}

// CodecCounters accumulates decoder events. Updates may come from any
// goroutine; DebugString reads each counter atomically.
type CodecCounters struct {
	values [7]atomic.Int64
}

func counterIndex(name string) (int, bool) {
	for i, n := range counterOrder {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Add increments the named counter by n.
func (c *CodecCounters) Add(name string, n int64) error {
	idx, ok := counterIndex(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return fmt.Errorf("unknown codec counter %q", name)
	}
	c.values[idx].Add(n)
	return nil
}

// get returns the named counter, or 0 for unknown names.
func (c *CodecCounters) get(name string) int64 {
	idx, ok := counterIndex(name)
	if !ok {
		return 0
	}
	return c.values[idx].Load()
}

func (c *CodecCounters) Reset() {
	for i := range c.values {
		c.values[i].Store(0)
	}
}

// DebugString renders "cic:<n> crc:<n> ofc:<n> obc:<n> ren:<n> sob:<n> dob:<n>".
func (c *CodecCounters) DebugString() string {
	var b strings.Builder
	for i, name := range counterOrder {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(c.values[i].Load(), 10))
	}
	return b.String()
}
