package ui

import (
	"io"
	"log"
)

// HeadlessSurface logs the overlay line instead of drawing it. It runs its
// own EventLoop.
type HeadlessSurface struct {
	*EventLoop
	logf func(format string, args ...any)
	last string
}

// NewHeadlessSurface starts a loop whose text writes go to the standard logger.
func NewHeadlessSurface(metrics *Metrics) *HeadlessSurface {
	s := &HeadlessSurface{
		EventLoop: NewEventLoop(metrics),
		logf:      log.Printf,
	}
	s.Start()
	return s
}

// SetText logs text when it differs from the previous line.
func (s *HeadlessSurface) SetText(text string) {
	if text == s.last {
		return
	}
	s.last = text
	s.logf("Overlay: %s", text)
}

func (s *HeadlessSurface) WaitReady() {}

// SystemWriter returns nil; headless output stays on the console.
func (s *HeadlessSurface) SystemWriter() io.Writer { return nil }
