package ui

import (
	"sync"
	"time"

	"playerdebug/overlay"
)

const (
	defaultLoopCapacity = 64
	defaultDrainTimeout = 100 * time.Millisecond
)

// EventLoop is a single goroutine draining a task queue. It stands in for a
// toolkit event loop on hosts that lack one. PostDelayed and RemoveCallbacks
// must be called from tasks running on the loop; Post is safe from anywhere.
type EventLoop struct {
	tasks        chan func()
	quit         chan struct{}
	done         chan struct{}
	startOnce    sync.Once
	stopOnce     sync.Once
	drainTimeout time.Duration
	queue        *callbackQueue
	metrics      *Metrics
	onPanic      func(recovered any)
}

// NewEventLoop builds a stopped loop. A nil metrics disables accounting.
func NewEventLoop(metrics *Metrics) *EventLoop {
	l := &EventLoop{
		tasks:        make(chan func(), defaultLoopCapacity),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		drainTimeout: defaultDrainTimeout,
		metrics:      metrics,
		onPanic:      logPanic,
	}
	l.queue = newCallbackQueue(l.Post, metrics)
	return l
}

// SetPanicHandler replaces the default handler, which logs the panic with a
// stack trace. Must be called before Start.
func (l *EventLoop) SetPanicHandler(fn func(recovered any)) {
	if fn == nil {
		fn = logPanic
	}
	l.onPanic = fn
}

func (l *EventLoop) Start() {
	l.startOnce.Do(func() {
		go l.run()
	})
}

// Stop ends the loop, waiting briefly for the running task to finish. Pending
// delayed callbacks are discarded.
func (l *EventLoop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
	select {
	case <-l.done:
	case <-time.After(l.drainTimeout):
	}
}

// Post enqueues fn to run on the loop. It reports false once the loop is
// stopping.
func (l *EventLoop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

func (l *EventLoop) PostDelayed(r overlay.Runnable, delay time.Duration) {
	l.queue.post(r, delay)
}

func (l *EventLoop) RemoveCallbacks(r overlay.Runnable) {
	l.queue.remove(r)
}

// Pending reports the number of delayed callbacks waiting to fire. Loop
// goroutine only.
func (l *EventLoop) Pending() int {
	return l.queue.len()
}

func (l *EventLoop) run() {
	defer close(l.done)
	defer l.queue.clear()
	for {
		select {
		case fn := <-l.tasks:
			l.guard(fn)
		case <-l.quit:
			return
		}
	}
}

func (l *EventLoop) guard(fn func()) {
	runGuarded(fn, l.metrics, l.onPanic)
}

// Done is closed when the loop goroutine exits.
func (l *EventLoop) Done() <-chan struct{} {
	return l.done
}
