package ui

import (
	"io"
	"log"
	"runtime/debug"

	"playerdebug/overlay"
)

// Surface is a host display for the overlay line together with the event
// loop that owns it. Post is safe from any goroutine; the overlay.Surface
// methods must only be called from callbacks running on the loop.
type Surface interface {
	overlay.Surface
	Post(fn func()) bool
	WaitReady()
	Stop()
	// Done is closed once the surface's loop has exited.
	Done() <-chan struct{}
	// SystemWriter returns a writer for log output, or nil when the caller
	// should keep logging to the console.
	SystemWriter() io.Writer
}

// runGuarded is the default handler for callbacks on a surface loop: a panic
// is counted and reported, and the loop keeps running.
func runGuarded(fn func(), metrics *Metrics, onPanic func(recovered any)) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ObservePanic()
			if onPanic != nil {
				onPanic(r)
			}
		}
	}()
	fn()
}

func logPanic(recovered any) {
	log.Printf("UI: callback panic: %v\n%s", recovered, debug.Stack())
}
