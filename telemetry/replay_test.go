package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTraceReplayHonoursOffsetsAndSpeed(t *testing.T) {
	s := NewSession()
	events := []Event{
		{T: 0, Type: EventFormat, ID: "v0", Bitrate: 300_000, Height: 240},
		{T: 1000, Type: EventTransfer, Bytes: 75_000, DurationMs: 100},
		{T: 1000, Type: EventPlay},
		{T: 3000, Type: "bogus"},
		{T: 4000, Type: EventPause},
	}
	r := NewTraceReplay(s, events, 2, false)
	var waits []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	var logged int
	r.logf = func(format string, args ...any) { logged++ }

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []time.Duration{500 * time.Millisecond, time.Second, 500 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("expected waits %v, got %v", want, waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("expected waits %v, got %v", want, waits)
		}
	}
	if s.Format() == nil || s.Format().ID != "v0" {
		t.Fatalf("expected format to be applied")
	}
	if s.BandwidthMeter() == nil {
		t.Fatalf("expected meter to be active after transfer")
	}
	if s.clock.running() {
		t.Fatalf("expected clock paused at end of trace")
	}
	// bogus event plus the finish line
	if logged != 2 {
		t.Fatalf("expected 2 log lines, got %d", logged)
	}
}

func TestTraceReplayStopsOnCancel(t *testing.T) {
	s := NewSession()
	events := []Event{{T: 0, Type: EventPlay}, {T: 1000, Type: EventPause}}
	r := NewTraceReplay(s, events, 1, true)
	ctx, cancel := context.WithCancel(context.Background())
	passes := 0
	r.sleep = func(ctx context.Context, d time.Duration) error {
		passes++
		if passes == 3 {
			cancel()
		}
		return ctx.Err()
	}
	r.logf = func(string, ...any) {}

	err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if passes != 3 {
		t.Fatalf("expected looping replay to continue until cancel, got %d sleeps", passes)
	}
}

func TestTraceReplayEmpty(t *testing.T) {
	if err := NewTraceReplay(NewSession(), nil, 1, false).Run(context.Background()); err == nil {
		t.Fatalf("expected error for empty trace")
	}
}
