package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"playerdebug/config"
)

func TestLogFileNameForDate(t *testing.T) {
	when := time.Date(2026, time.January, 22, 12, 0, 0, 0, time.UTC)
	if got := logFileNameForDate(when); got != "22-Jan-2026.log" {
		t.Fatalf("expected log filename to be 22-Jan-2026.log, got %q", got)
	}
}

func TestParseLogFileDate(t *testing.T) {
	parsed, ok := parseLogFileDate("22-Jan-2026.log")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if parsed.Year() != 2026 || parsed.Month() != time.January || parsed.Day() != 22 {
		t.Fatalf("unexpected parsed date: %s", parsed.Format(time.RFC3339))
	}
	if _, ok := parseLogFileDate("notes.txt"); ok {
		t.Fatalf("expected non-log file to be rejected")
	}
	if _, ok := parseLogFileDate("overlay.log"); ok {
		t.Fatalf("expected undated log file to be rejected")
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"20-Jan-2026.log", "21-Jan-2026.log", "22-Jan-2026.log", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	now := time.Date(2026, time.January, 22, 12, 0, 0, 0, time.UTC)
	if err := cleanupOldLogs(dir, now, 2); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "20-Jan-2026.log")); !os.IsNotExist(err) {
		t.Fatalf("expected 20-Jan-2026.log to be removed, stat err=%v", err)
	}
	for _, name := range []string{"21-Jan-2026.log", "22-Jan-2026.log", "notes.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to remain: %v", name, err)
		}
	}
}

func TestDailyLogFileSwitchesAtMidnight(t *testing.T) {
	dir := t.TempDir()
	sink, err := newDailyLogFile(dir, 7)
	if err != nil {
		t.Fatalf("newDailyLogFile: %v", err)
	}
	defer sink.Close()

	day1 := time.Date(2026, time.January, 22, 23, 59, 0, 0, time.UTC)
	sink.WriteLine("first", day1)
	if got := filepath.Base(sink.Path()); got != "22-Jan-2026.log" {
		t.Fatalf("expected 22-Jan-2026.log, got %q", got)
	}
	sink.WriteLine("second", day1.Add(2*time.Minute))
	if got := filepath.Base(sink.Path()); got != "23-Jan-2026.log" {
		t.Fatalf("expected 23-Jan-2026.log, got %q", got)
	}

	data, err := os.ReadFile(filepath.Join(dir, "22-Jan-2026.log"))
	if err != nil {
		t.Fatalf("read day one: %v", err)
	}
	if string(data) != "2026/01/22 23:59:00 first\n" {
		t.Fatalf("unexpected day one contents %q", data)
	}
}

func TestLogFanoutSplitsLines(t *testing.T) {
	var console bytes.Buffer
	fanout := newLogFanout(&consoleSink{w: &console}, nil)

	fanout.Write([]byte("Overlay: ms(0) "))
	if console.Len() != 0 {
		t.Fatalf("expected partial line to be held, got %q", console.String())
	}
	fanout.Write([]byte("id:? br:? h:? bw:? \r\nUI: ready\n"))
	want := "Overlay: ms(0) id:? br:? h:? bw:? \nUI: ready\n"
	if console.String() != want {
		t.Fatalf("expected %q, got %q", want, console.String())
	}
}

func TestLogFanoutFlushesRunawayLine(t *testing.T) {
	var console bytes.Buffer
	fanout := newLogFanout(&consoleSink{w: &console}, nil)
	fanout.Write(bytes.Repeat([]byte("x"), maxLogBufferBytes+1))
	if got := strings.Count(console.String(), "\n"); got != 1 {
		t.Fatalf("expected oversized partial line to be flushed once, got %d lines", got)
	}
}

func TestSetupLoggingWritesFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{Enabled: true, Dir: dir, RetentionDays: 3}, &console)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	defer fanout.Close()
	fanout.now = func() time.Time { return time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC) }

	logger := log.New(fanout, "", 0)
	logger.Print("Telemetry: trace finished (12 events)")

	if !strings.HasSuffix(console.String(), "Telemetry: trace finished (12 events)\n") {
		t.Fatalf("unexpected console output %q", console.String())
	}
	if got := filepath.Base(fanout.FilePath()); got != "01-Mar-2026.log" {
		t.Fatalf("expected 01-Mar-2026.log, got %q", got)
	}
	data, err := os.ReadFile(fanout.FilePath())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "2026/03/01 08:30:00 Telemetry: trace finished (12 events)\n" {
		t.Fatalf("unexpected file contents %q", data)
	}
}

func TestSetupLoggingDisabledHasNoFile(t *testing.T) {
	var console bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{Enabled: false}, &console)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	if fanout.FilePath() != "" {
		t.Fatalf("expected no file path when logging is disabled")
	}
	fanout.SetConsole(nil, false)
	fanout.Write([]byte("dropped\n"))
	if console.Len() != 0 {
		t.Fatalf("expected silenced console, got %q", console.String())
	}
}
