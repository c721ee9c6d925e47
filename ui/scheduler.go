package ui

import (
	"sort"
	"sync"
	"time"
)

// frameScheduler coalesces pane updates and caps how often they are handed to
// the UI goroutine. Only the latest update per id survives a frame.
type frameScheduler struct {
	queue        func(fn func())
	pending      map[string]func()
	mu           sync.Mutex
	quit         chan struct{}
	done         chan struct{}
	startOnce    sync.Once
	stopOnce     sync.Once
	frameTime    time.Duration
	drainTimeout time.Duration
}

func newFrameScheduler(queue func(fn func()), targetFPS int, drainTimeout time.Duration) *frameScheduler {
	if targetFPS <= 0 {
		targetFPS = 30
	}
	if drainTimeout <= 0 {
		drainTimeout = 100 * time.Millisecond
	}
	return &frameScheduler{
		queue:        queue,
		pending:      make(map[string]func()),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		frameTime:    time.Second / time.Duration(targetFPS),
		drainTimeout: drainTimeout,
	}
}

func (f *frameScheduler) Start() {
	f.startOnce.Do(func() {
		go f.run()
	})
}

func (f *frameScheduler) Stop() {
	f.stopOnce.Do(func() {
		close(f.quit)
	})
	select {
	case <-f.done:
	case <-time.After(f.drainTimeout):
	}
}

func (f *frameScheduler) Schedule(id string, fn func()) {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.pending[id] = fn
	f.mu.Unlock()
}

func (f *frameScheduler) run() {
	defer close(f.done)

	ticker := time.NewTicker(f.frameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.flush()
		case <-f.quit:
			f.flushBounded(f.drainTimeout)
			return
		}
	}
}

func (f *frameScheduler) flush() {
	f.flushBounded(0)
}

func (f *frameScheduler) flushBounded(max time.Duration) {
	deadline := time.Time{}
	if max > 0 {
		deadline = time.Now().Add(max)
	}
	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return
		}
		f.mu.Lock()
		if len(f.pending) == 0 {
			f.mu.Unlock()
			return
		}
		ids := make([]string, 0, len(f.pending))
		for id := range f.pending {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		batch := make([]func(), 0, len(ids))
		for _, id := range ids {
			batch = append(batch, f.pending[id])
			delete(f.pending, id)
		}
		f.mu.Unlock()

		f.queue(func() {
			for _, fn := range batch {
				fn()
			}
		})
	}
}
