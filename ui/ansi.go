package ui

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"playerdebug/config"
)

// ANSISurface is a fixed-layout console renderer using ANSI escape codes. The
// screen is redrawn whenever the overlay text is replaced, which keeps all
// terminal writes on the loop goroutine.
type ANSISurface struct {
	*EventLoop
	out       io.Writer
	color     bool
	clear     bool
	mu        sync.Mutex
	line      string
	system    ringPane
	snapSys   []string
	renderBuf bytes.Buffer
	writer    *lineWriter
}

type ringPane struct {
	lines []string
	idx   int
	count int
}

// NewANSISurface starts a loop rendering to out.
func NewANSISurface(out io.Writer, uiCfg config.UIConfig, metrics *Metrics) *ANSISurface {
	systemLines := uiCfg.LogLines
	if systemLines <= 0 {
		systemLines = 1
	}
	s := &ANSISurface{
		EventLoop: NewEventLoop(metrics),
		out:       out,
		color:     uiCfg.Color,
		clear:     uiCfg.ClearScreen,
		system:    ringPane{lines: make([]string, systemLines)},
		snapSys:   make([]string, systemLines),
	}
	s.writer = newLineWriter(s.AppendSystem)
	s.Start()
	return s
}

func (s *ANSISurface) WaitReady() {}

// SetText replaces the overlay line and redraws the screen.
func (s *ANSISurface) SetText(text string) {
	s.mu.Lock()
	s.line = text
	s.mu.Unlock()
	s.render()
}

// AppendSystem adds a log line to the system pane. Safe from any goroutine;
// the pane is redrawn on the next overlay refresh.
func (s *ANSISurface) AppendSystem(line string) {
	line = applyANSIMarkup(line, s.color)
	s.mu.Lock()
	s.system.push(line)
	s.mu.Unlock()
}

func (s *ANSISurface) SystemWriter() io.Writer {
	return s.writer
}

func (s *ANSISurface) render() {
	s.mu.Lock()
	line := s.line
	system := s.system.snapshot(s.snapSys)
	s.mu.Unlock()

	s.renderBuf.Reset()
	if s.clear {
		s.renderBuf.WriteString("\x1b[2J\x1b[H")
	}
	writePane(&s.renderBuf, "---- Playback ----", []string{line})
	writePane(&s.renderBuf, "---- System ----", system)
	_, _ = s.renderBuf.WriteTo(s.out)
}

func (p *ringPane) push(line string) {
	if len(p.lines) == 0 {
		return
	}
	p.lines[p.idx] = line
	p.idx = (p.idx + 1) % len(p.lines)
	if p.count < len(p.lines) {
		p.count++
	}
}

// snapshot copies the pane into buf, oldest line first.
func (p *ringPane) snapshot(buf []string) []string {
	if len(p.lines) == 0 || p.count == 0 || len(buf) == 0 {
		return buf[:0]
	}
	start := p.idx - p.count
	if start < 0 {
		start += len(p.lines)
	}
	limit := p.count
	if limit > len(buf) {
		limit = len(buf)
	}
	for i := 0; i < limit; i++ {
		buf[i] = p.lines[(start+i)%len(p.lines)]
	}
	return buf[:limit]
}

func writePane(b *bytes.Buffer, title string, lines []string) {
	b.WriteString(title)
	b.WriteByte('\n')
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// applyANSIMarkup converts tview-style colour tags to escape codes, or strips
// them when colour is disabled.
func applyANSIMarkup(line string, enableColor bool) string {
	if line == "" {
		return line
	}
	if enableColor {
		hasMarkup := strings.Contains(line, "[")
		line = ansiColorReplacer.Replace(line)
		if hasMarkup {
			line += resetANSI
		}
		return line
	}
	return ansiStripReplacer.Replace(line)
}

const resetANSI = "\x1b[0m"

var ansiColorReplacer = strings.NewReplacer(
	"[red]", "\x1b[31m",
	"[green]", "\x1b[32m",
	"[yellow]", "\x1b[33m",
	"[blue]", "\x1b[34m",
	"[magenta]", "\x1b[35m",
	"[cyan]", "\x1b[36m",
	"[white]", "\x1b[37m",
	"[-]", resetANSI,
)

var ansiStripReplacer = strings.NewReplacer(
	"[red]", "",
	"[green]", "",
	"[yellow]", "",
	"[blue]", "",
	"[magenta]", "",
	"[cyan]", "",
	"[white]", "",
	"[-]", "",
)
