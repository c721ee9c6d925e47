package telemetry

import (
	"testing"
	"time"

	"playerdebug/overlay"
)

func TestSessionStartsWithAbsentValues(t *testing.T) {
	s := NewSession()
	if s.Format() != nil {
		t.Fatalf("expected no format before first report")
	}
	if s.BandwidthMeter() != nil {
		t.Fatalf("expected no bandwidth meter before first transfer")
	}
	if s.CodecCounters() != nil {
		t.Fatalf("expected no codec counters before first report")
	}
	if got := overlay.Render(s); got != "ms(0) id:? br:? h:? bw:? " {
		t.Fatalf("unexpected initial render %q", got)
	}
}

func TestSessionApplyRendersOverlay(t *testing.T) {
	now := newFakeNow()
	s := NewSession()
	s.clock.now = now.Now

	events := []Event{
		{Type: EventFormat, ID: "video/1", Bitrate: 2_500_000, Height: 720},
		{Type: EventTransfer, Bytes: 1_000_000, DurationMs: 1000},
		{Type: EventCodec, Counter: CounterCodecInit, N: 1},
		{Type: EventCodec, Counter: CounterRendered, N: 300},
		{Type: EventSeek, PositionMs: 12_000},
		{Type: EventPlay},
	}
	for _, ev := range events {
		if err := s.Apply(ev); err != nil {
			t.Fatalf("Apply(%+v): %v", ev, err)
		}
	}
	now.Advance(345 * time.Millisecond)

	want := "ms(12345) id:video/1 br:2500000 h:720 bw:8000 cic:1 crc:0 ofc:0 obc:0 ren:300 sob:0 dob:0"
	if got := overlay.Render(s); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if err := s.Apply(Event{Type: EventPause}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	now.Advance(time.Second)
	if got := s.CurrentPosition(); got != 12_345 {
		t.Fatalf("expected paused position 12345, got %d", got)
	}
}

func TestSessionApplyRejectsBadEvents(t *testing.T) {
	s := NewSession()
	bad := []Event{
		{Type: "rewind"},
		{Type: EventCodec, Counter: "fps", N: 1},
		{Type: EventTransfer, Bytes: -1, DurationMs: 10},
	}
	for _, ev := range bad {
		if err := s.Apply(ev); err == nil {
			t.Fatalf("expected error for %+v", ev)
		}
	}
	if s.CodecCounters() != nil {
		t.Fatalf("expected rejected codec event to leave counters absent")
	}
}

func TestSessionFormatCleared(t *testing.T) {
	s := NewSession()
	s.Apply(Event{Type: EventFormat, ID: "a", Bitrate: 1, Height: 1})
	s.Apply(Event{Type: EventFormat})
	if s.Format() != nil {
		t.Fatalf("expected empty format id to clear the selection")
	}
}

func TestSessionReset(t *testing.T) {
	s := NewSession()
	s.Apply(Event{Type: EventSeek, PositionMs: 5000})
	s.Apply(Event{Type: EventTransfer, Bytes: 1000, DurationMs: 8})
	s.Apply(Event{Type: EventCodec, Counter: CounterDropped, N: 4})
	s.Reset()
	if got := overlay.Render(s); got != "ms(0) id:? br:? h:? bw:? " {
		t.Fatalf("unexpected render after reset %q", got)
	}
}

func TestSessionApplyStreamingTransfer(t *testing.T) {
	now := newFakeNow()
	s := NewSession()
	s.meter.now = now.Now

	if err := s.Apply(Event{Type: EventTransferStart}); err != nil {
		t.Fatalf("transfer_start: %v", err)
	}
	if s.BandwidthMeter() == nil {
		t.Fatalf("expected meter to be present once a transfer starts")
	}
	if got := overlay.Render(s); got != "ms(0) id:? br:? h:? bw:? " {
		t.Fatalf("expected no estimate mid-transfer, got %q", got)
	}
	for i := 0; i < 2; i++ {
		now.Advance(250 * time.Millisecond)
		if err := s.Apply(Event{Type: EventBytes, Bytes: 250_000}); err != nil {
			t.Fatalf("bytes: %v", err)
		}
	}
	if err := s.Apply(Event{Type: EventTransferEnd}); err != nil {
		t.Fatalf("transfer_end: %v", err)
	}
	if got := s.BandwidthMeter().BitrateEstimate(); got != 8_000_000 {
		t.Fatalf("expected 8000000 bps from 500000 bytes in 500ms, got %d", got)
	}
	if err := s.Apply(Event{Type: EventBytes, Bytes: -1}); err == nil {
		t.Fatalf("expected error for negative byte count")
	}
}

func TestSessionTransferEndWithoutStart(t *testing.T) {
	s := NewSession()
	if err := s.Apply(Event{Type: EventTransferEnd}); err != nil {
		t.Fatalf("transfer_end: %v", err)
	}
	if s.BandwidthMeter() != nil {
		t.Fatalf("expected unmatched transfer_end to leave the meter absent")
	}
}
