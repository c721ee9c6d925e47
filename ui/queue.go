package ui

import (
	"time"

	"playerdebug/overlay"
)

// stopper is the subset of *time.Timer used by callbackQueue.
type stopper interface {
	Stop() bool
}

type afterFunc func(d time.Duration, fn func()) stopper

func realAfterFunc(d time.Duration, fn func()) stopper {
	return time.AfterFunc(d, fn)
}

type pendingCallback struct {
	r     overlay.Runnable
	due   time.Time
	timer stopper
}

// callbackQueue tracks delayed callbacks for one event loop. All methods
// except the timer expiry itself run on the loop goroutine; expiry only hands
// fire to dispatch, which is expected to recover panics.
type callbackQueue struct {
	dispatch func(fn func()) bool
	after    afterFunc
	now      func() time.Time
	metrics  *Metrics
	pending  map[*pendingCallback]struct{}
}

func newCallbackQueue(dispatch func(fn func()) bool, metrics *Metrics) *callbackQueue {
	return &callbackQueue{
		dispatch: dispatch,
		after:    realAfterFunc,
		now:      time.Now,
		metrics:  metrics,
		pending:  make(map[*pendingCallback]struct{}),
	}
}

func (q *callbackQueue) post(r overlay.Runnable, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	p := &pendingCallback{r: r, due: q.now().Add(delay)}
	q.pending[p] = struct{}{}
	p.timer = q.after(delay, func() {
		q.dispatch(func() { q.fire(p) })
	})
}

func (q *callbackQueue) fire(p *pendingCallback) {
	if _, ok := q.pending[p]; !ok {
		return
	}
	delete(q.pending, p)
	q.metrics.ObserveDispatch(q.now().Sub(p.due))
	p.r.Run()
}

func (q *callbackQueue) remove(r overlay.Runnable) int {
	removed := 0
	for p := range q.pending {
		if p.r != r {
			continue
		}
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(q.pending, p)
		removed++
	}
	q.metrics.ObserveRemoved(removed)
	return removed
}

// clear drops every pending callback; used when the owning loop shuts down.
func (q *callbackQueue) clear() {
	for p := range q.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(q.pending, p)
	}
}

func (q *callbackQueue) len() int {
	return len(q.pending)
}
