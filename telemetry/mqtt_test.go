package telemetry

import (
	"strings"
	"testing"
)

func TestMQTTFeedClientID(t *testing.T) {
	a := NewMQTTFeed("localhost", 1883, "player/events", "lab", NewSession())
	b := NewMQTTFeed("localhost", 1883, "player/events", "lab", NewSession())
	if !strings.HasPrefix(a.clientID, "lab-") {
		t.Fatalf("expected client id prefixed with lab-, got %q", a.clientID)
	}
	if a.clientID == b.clientID {
		t.Fatalf("expected unique client ids, both were %q", a.clientID)
	}
	if d := NewMQTTFeed("localhost", 1883, "t", "", NewSession()); !strings.HasPrefix(d.clientID, "playerdebug-") {
		t.Fatalf("expected default prefix, got %q", d.clientID)
	}
}

func TestMQTTFeedHandlePayload(t *testing.T) {
	s := NewSession()
	f := NewMQTTFeed("localhost", 1883, "player/events", "lab", s)

	f.handlePayload([]byte(`{"type":"format","id":"v3","br":2500000,"h":720}`))
	f.handlePayload([]byte(`{"type":"codec","counter":"ren","n":30}`))
	f.handlePayload([]byte(`not json`))
	f.handlePayload([]byte(`{"type":"rewind"}`))

	received, rejected := f.Stats()
	if received != 4 || rejected != 2 {
		t.Fatalf("expected 4 received / 2 rejected, got %d / %d", received, rejected)
	}
	if s.Format() == nil || s.Format().Height != 720 {
		t.Fatalf("expected format applied, got %+v", s.Format())
	}
	if c := s.CodecCounters(); c == nil || !strings.Contains(c.DebugString(), "ren:30") {
		t.Fatalf("expected rendered count applied")
	}
	if f.connected() {
		t.Fatalf("expected feed without client to report disconnected")
	}
	f.Stop()
}
