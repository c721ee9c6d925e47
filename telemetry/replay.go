package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"playerdebug/internal/ratelimit"
)

// TraceReplay feeds recorded events into a Session, honouring their time
// offsets scaled by speed.
type TraceReplay struct {
	session *Session
	events  []Event
	speed   float64
	loop    bool
	sleep   func(ctx context.Context, d time.Duration) error
	logf    func(format string, args ...any)
	skipped *ratelimit.Counter
}

// NewTraceReplay replays events into session. speed <= 0 means real time.
func NewTraceReplay(session *Session, events []Event, speed float64, loop bool) *TraceReplay {
	if speed <= 0 {
		speed = 1
	}
	return &TraceReplay{
		session: session,
		events:  events,
		speed:   speed,
		loop:    loop,
		sleep:   sleepContext,
		logf:    log.Printf,
		skipped: ratelimit.NewCounter(10 * time.Second),
	}
}

// Run applies events until the trace ends (or forever when looping) or ctx
// is cancelled. Events that fail to apply are skipped, with throttled logging.
func (r *TraceReplay) Run(ctx context.Context) error {
	if len(r.events) == 0 {
		return fmt.Errorf("trace has no events")
	}
	for pass := 1; ; pass++ {
		if err := r.replayOnce(ctx); err != nil {
			return err
		}
		if !r.loop {
			r.logf("Telemetry: trace finished (%d events)", len(r.events))
			return nil
		}
		r.logf("Telemetry: trace pass %d finished; restarting", pass)
		r.session.Reset()
	}
}

func (r *TraceReplay) replayOnce(ctx context.Context) error {
	var elapsedMs int64
	for _, ev := range r.events {
		if wait := ev.T - elapsedMs; wait > 0 {
			d := time.Duration(float64(wait) * float64(time.Millisecond) / r.speed)
			if err := r.sleep(ctx, d); err != nil {
				return err
			}
			elapsedMs = ev.T
		}
		if err := r.session.Apply(ev); err != nil {
			if total, ok := r.skipped.Inc(); ok {
				r.logf("Telemetry: skipping event at t=%dms: %v (%d skipped)", ev.T, err, total)
			}
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
