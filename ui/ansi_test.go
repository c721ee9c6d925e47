package ui

import (
	"bytes"
	"strings"
	"testing"

	"playerdebug/config"
)

func TestApplyANSIMarkup(t *testing.T) {
	if got := applyANSIMarkup("[red]X[-]", true); got != "\x1b[31mX\x1b[0m\x1b[0m" {
		t.Fatalf("markup mismatch: got %q", got)
	}
	if got := applyANSIMarkup("[red]X[-]", false); got != "X" {
		t.Fatalf("strip mismatch: got %q", got)
	}
}

func TestRingPaneSnapshotOrder(t *testing.T) {
	p := ringPane{lines: make([]string, 3)}
	for _, line := range []string{"one", "two", "three", "four"} {
		p.push(line)
	}
	got := p.snapshot(make([]string, 3))
	if strings.Join(got, ",") != "two,three,four" {
		t.Fatalf("expected oldest line evicted, got %v", got)
	}
}

func TestANSISurfaceRender(t *testing.T) {
	var out bytes.Buffer
	s := &ANSISurface{
		out:     &out,
		system:  ringPane{lines: make([]string, 2)},
		snapSys: make([]string, 2),
	}
	s.writer = newLineWriter(s.AppendSystem)

	if _, err := s.SystemWriter().Write([]byte("Telemetry: [green]connected[-]\nUI: ready\nUI: third\n")); err != nil {
		t.Fatalf("write error: %v", err)
	}
	s.SetText("ms(1) id:? br:? h:? bw:? ")

	want := "---- Playback ----\nms(1) id:? br:? h:? bw:? \n---- System ----\nUI: ready\nUI: third\n"
	if out.String() != want {
		t.Fatalf("unexpected frame:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestANSISurfaceClearsScreen(t *testing.T) {
	var out bytes.Buffer
	s := NewANSISurface(&out, config.UIConfig{ClearScreen: true, LogLines: 1}, nil)
	s.Stop()

	s.render()
	if !strings.HasPrefix(out.String(), "\x1b[2J\x1b[H") {
		t.Fatalf("expected clear-screen prefix, got %q", out.String())
	}
}
