package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"playerdebug/config"
)

const (
	logTimestampLayout = "2006/01/02 15:04:05"
	logFileDateLayout  = "02-Jan-2006"
	maxLogBufferBytes  = 16 * 1024
	logErrorInterval   = time.Minute
)

// lineSink receives complete log lines from logFanout.
type lineSink interface {
	WriteLine(line string, now time.Time)
	Close() error
}

// consoleSink writes to stdout or a UI system pane.
type consoleSink struct {
	w             io.Writer
	withTimestamp bool
}

// Purpose: Emit one log line to the console writer.
// Key aspects: The UI panes have no timestamp column of their own, so the
// caller chooses whether to prefix one.
// Upstream: logFanout.Write.
// Downstream: io.Writer.Write.
func (s *consoleSink) WriteLine(line string, now time.Time) {
	if s == nil || s.w == nil {
		return
	}
	if s.withTimestamp {
		line = formatLogTimestamp(now) + " " + line
	}
	_, _ = io.WriteString(s.w, line+"\n")
}

func (s *consoleSink) Close() error { return nil }

// dailyLogFile appends to <dir>/DD-Mon-YYYY.log, switching files at UTC
// midnight and pruning files older than the retention window.
type dailyLogFile struct {
	mu            sync.Mutex
	dir           string
	retentionDays int
	date          string
	file          *os.File
	lastErrorAt   time.Time
}

// Purpose: Prepare the log directory and prune stale files.
// Key aspects: A failed prune is reported but does not disable file logging.
// Upstream: setupLogging.
// Downstream: os.MkdirAll, cleanupOldLogs.
func newDailyLogFile(dir string, retentionDays int) (*dailyLogFile, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("log directory is empty")
	}
	if retentionDays <= 0 {
		retentionDays = 7
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory %q: %w", dir, err)
	}
	if err := cleanupOldLogs(dir, time.Now().UTC(), retentionDays); err != nil {
		fmt.Fprintf(os.Stderr, "Logging: cleanup failed for %s: %v\n", dir, err)
	}
	return &dailyLogFile{dir: dir, retentionDays: retentionDays}, nil
}

// Purpose: Append a timestamped line, opening the file for now's date first.
// Key aspects: Write errors go to stderr at most once per logErrorInterval.
// Upstream: logFanout.Write.
// Downstream: dailyLogFile.openLocked, os.File.WriteString.
func (s *dailyLogFile) WriteLine(line string, now time.Time) {
	if s == nil {
		return
	}
	now = now.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if date := now.Format(logFileDateLayout); s.file == nil || s.date != date {
		s.openLocked(date, now)
	}
	if s.file == nil {
		return
	}
	if _, err := s.file.WriteString(formatLogTimestamp(now) + " " + line + "\n"); err != nil {
		s.reportLocked(now, fmt.Errorf("write failed: %w", err))
	}
}

func (s *dailyLogFile) openLocked(date string, now time.Time) {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	path := filepath.Join(s.dir, logFileNameForDate(now))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		s.reportLocked(now, fmt.Errorf("open %s: %w", path, err))
		return
	}
	s.file = file
	s.date = date
	if err := cleanupOldLogs(s.dir, now, s.retentionDays); err != nil {
		s.reportLocked(now, fmt.Errorf("cleanup failed: %w", err))
	}
}

// Path returns the file currently being written, or "" before the first line.
func (s *dailyLogFile) Path() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}

func (s *dailyLogFile) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.date = ""
	return err
}

func (s *dailyLogFile) reportLocked(now time.Time, err error) {
	if !s.lastErrorAt.IsZero() && now.Sub(s.lastErrorAt) < logErrorInterval {
		return
	}
	s.lastErrorAt = now
	fmt.Fprintf(os.Stderr, "Logging: %v\n", err)
}

// logFanout is the io.Writer behind the standard logger. It splits output
// into lines and copies each to the console and file sinks.
type logFanout struct {
	mu      sync.Mutex
	buf     []byte
	console lineSink
	file    lineSink
	now     func() time.Time
}

func newLogFanout(console, file lineSink) *logFanout {
	return &logFanout{console: console, file: file, now: time.Now}
}

// Purpose: Build the log writer from config.
// Key aspects: Always returns a usable fanout; a file sink error is returned
// alongside it so startup can continue console-only.
// Upstream: main.
// Downstream: newDailyLogFile.
func setupLogging(cfg config.LoggingConfig, console io.Writer) (*logFanout, error) {
	fanout := newLogFanout(&consoleSink{w: console, withTimestamp: true}, nil)
	if !cfg.Enabled {
		return fanout, nil
	}
	file, err := newDailyLogFile(cfg.Dir, cfg.RetentionDays)
	if err != nil {
		return fanout, err
	}
	fanout.setFile(file)
	return fanout, nil
}

// SetConsole redirects console output, e.g. into a surface's system pane.
// A nil writer silences the console.
func (f *logFanout) SetConsole(w io.Writer, withTimestamp bool) {
	if f == nil {
		return
	}
	var sink lineSink
	if w != nil {
		sink = &consoleSink{w: w, withTimestamp: withTimestamp}
	}
	f.mu.Lock()
	f.console = sink
	f.mu.Unlock()
}

func (f *logFanout) setFile(sink lineSink) {
	f.mu.Lock()
	f.file = sink
	f.mu.Unlock()
}

// FilePath reports where file logging is going, if anywhere.
func (f *logFanout) FilePath() string {
	if f == nil {
		return ""
	}
	f.mu.Lock()
	sink := f.file
	f.mu.Unlock()
	if d, ok := sink.(*dailyLogFile); ok {
		return d.Path()
	}
	return ""
}

// Purpose: Accept log output and dispatch complete lines.
// Key aspects: Partial lines are held until a newline arrives; a runaway
// partial line is flushed once it exceeds maxLogBufferBytes. Sinks are called
// outside the lock so a sink that logs cannot deadlock.
// Upstream: log.Logger.
// Downstream: lineSink.WriteLine.
func (f *logFanout) Write(p []byte) (int, error) {
	if f == nil {
		return len(p), nil
	}
	f.mu.Lock()
	f.buf = append(f.buf, p...)
	lines, rest := splitLogLines(f.buf)
	f.buf = append(f.buf[:0], rest...)
	console, file := f.console, f.file
	f.mu.Unlock()

	if len(lines) == 0 {
		return len(p), nil
	}
	now := f.now().UTC()
	for _, line := range lines {
		if console != nil {
			console.WriteLine(line, now)
		}
		if file != nil {
			file.WriteLine(line, now)
		}
	}
	return len(p), nil
}

func splitLogLines(data []byte) ([]string, []byte) {
	var lines []string
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, string(bytes.TrimRight(data[:idx], "\r")))
		data = data[idx+1:]
	}
	if len(data) > maxLogBufferBytes {
		if trimmed := string(bytes.TrimRight(data, "\r")); trimmed != "" {
			lines = append(lines, trimmed)
		}
		data = data[:0]
	}
	return lines, data
}

// Close releases the file sink. The console writer is not owned.
func (f *logFanout) Close() error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	file := f.file
	f.file = nil
	f.mu.Unlock()
	if file == nil {
		return nil
	}
	return file.Close()
}

func formatLogTimestamp(now time.Time) string {
	return now.UTC().Format(logTimestampLayout)
}

func logFileNameForDate(now time.Time) string {
	return now.UTC().Format(logFileDateLayout) + ".log"
}

func parseLogFileDate(name string) (time.Time, bool) {
	base, ok := strings.CutSuffix(name, ".log")
	if !ok {
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation(logFileDateLayout, base, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// cleanupOldLogs removes dated log files outside the last retentionDays days,
// today included. Other files are left alone.
func cleanupOldLogs(dir string, now time.Time, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	year, month, day := now.UTC().Date()
	cutoff := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(retentionDays - 1))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		date, ok := parseLogFileDate(entry.Name())
		if ok && date.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
	return nil
}
