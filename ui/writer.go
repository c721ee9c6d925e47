package ui

import (
	"bytes"
	"strings"
	"sync"
)

const maxWriterBufferSize = 16 * 1024

// lineWriter adapts log output to a per-line append callback. Partial lines
// are buffered; a line longer than maxWriterBufferSize is flushed early.
type lineWriter struct {
	append func(string)
	mu     sync.Mutex
	buf    []byte
}

func newLineWriter(appendLine func(string)) *lineWriter {
	return &lineWriter{append: appendLine}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	if w == nil || w.append == nil {
		return len(p), nil
	}
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	data := w.buf
	var lines []string
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, strings.TrimRight(string(data[:idx]), "\r"))
		data = data[idx+1:]
	}
	if len(data) > maxWriterBufferSize {
		if trimmed := strings.TrimRight(string(data), "\r"); trimmed != "" {
			lines = append(lines, trimmed)
		}
		data = data[:0]
	}
	w.buf = append(w.buf[:0], data...)
	w.mu.Unlock()

	for _, line := range lines {
		w.append(line)
	}
	return len(p), nil
}
