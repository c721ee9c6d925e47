package telemetry

import (
	"sync"
	"time"
)

// StandaloneClock tracks a playback position that advances with wall time
// while started.
type StandaloneClock struct {
	mu        sync.Mutex
	now       func() time.Time
	started   bool
	baseMs    int64
	startedAt time.Time
}

func NewStandaloneClock() *StandaloneClock {
	return &StandaloneClock{now: time.Now}
}

// Start resumes advancing from the current position. No-op when running.
func (c *StandaloneClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.startedAt = c.now()
}

// Stop freezes the position. No-op when stopped.
func (c *StandaloneClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	c.baseMs = c.positionLocked()
	c.started = false
}

// SetPositionMs moves the clock without changing whether it runs.
func (c *StandaloneClock) SetPositionMs(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseMs = ms
	if c.started {
		c.startedAt = c.now()
	}
}

func (c *StandaloneClock) PositionMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *StandaloneClock) running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func (c *StandaloneClock) positionLocked() int64 {
	if !c.started {
		return c.baseMs
	}
	return c.baseMs + c.now().Sub(c.startedAt).Milliseconds()
}
