package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"playerdebug/config"
	"playerdebug/overlay"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const textViewStopTimeout = time.Second

// TextViewSurface draws the overlay line in a tview TextView above a system
// log pane. The tview application goroutine is the UI thread: delayed
// callbacks and Post both go through QueueUpdateDraw.
type TextViewSurface struct {
	app         *tview.Application
	overlayView *tview.TextView
	systemView  *tview.TextView
	scheduler   *frameScheduler
	queue       *callbackQueue
	metrics     *Metrics
	writer      *lineWriter

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	stopped   atomic.Bool

	systemMu    sync.Mutex
	systemLines []string
	systemMax   int

	toggleMu sync.Mutex
	toggle   func()
}

// NewTextViewSurface builds the layout and starts the tview application.
func NewTextViewSurface(uiCfg config.UIConfig, metrics *Metrics) *TextViewSurface {
	s := newTextViewSurface(uiCfg, metrics)
	go s.run()
	return s
}

func newTextViewSurface(uiCfg config.UIConfig, metrics *Metrics) *TextViewSurface {
	// Dynamic colours stay off so the overlay line is shown verbatim.
	overlayView := tview.NewTextView().SetDynamicColors(false).SetWrap(false)
	overlayView.SetTextColor(tcell.ColorYellow)
	overlayView.SetBorder(true).SetTitle("Playback").SetTitleAlign(tview.AlignLeft)

	systemView := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	systemView.SetBorder(true).SetTitle("System").SetTitleAlign(tview.AlignLeft)

	help := tview.NewTextView().SetText(" q: quit   p: pause/resume overlay")
	help.SetTextColor(tcell.ColorGray)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(overlayView, 3, 0, false).
		AddItem(systemView, 0, 1, false).
		AddItem(help, 1, 0, false)

	systemMax := uiCfg.LogLines
	if systemMax <= 0 {
		systemMax = 1
	}
	s := &TextViewSurface{
		app:         tview.NewApplication().SetRoot(layout, true).EnableMouse(false),
		overlayView: overlayView,
		systemView:  systemView,
		metrics:     metrics,
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
		systemMax:   systemMax,
	}
	s.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		s.markReady()
		return false
	})
	s.app.SetInputCapture(s.handleKey)
	s.queue = newCallbackQueue(s.Post, metrics)
	s.scheduler = newFrameScheduler(func(fn func()) { s.Post(fn) }, uiCfg.TargetFPS, 0)
	s.writer = newLineWriter(s.AppendSystem)
	return s
}

func (s *TextViewSurface) run() {
	defer close(s.done)
	s.scheduler.Start()
	if err := s.app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "UI: tview error: %v\n", err)
	}
	s.stopped.Store(true)
	s.scheduler.Stop()
	// Unblock WaitReady if the screen never came up.
	s.markReady()
}

func (s *TextViewSurface) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *TextViewSurface) WaitReady() {
	<-s.ready
}

// Stop shuts the application down and waits briefly for it to exit.
func (s *TextViewSurface) Stop() {
	s.stopped.Store(true)
	s.scheduler.Stop()
	s.app.Stop()
	select {
	case <-s.done:
	case <-time.After(textViewStopTimeout):
	}
}

func (s *TextViewSurface) Done() <-chan struct{} {
	return s.done
}

// Post queues fn on the tview goroutine. It reports false once the surface
// is stopping.
func (s *TextViewSurface) Post(fn func()) bool {
	if s.stopped.Load() {
		return false
	}
	s.app.QueueUpdateDraw(func() { s.guard(fn) })
	return true
}

func (s *TextViewSurface) SetText(text string) {
	s.overlayView.SetText(text)
}

func (s *TextViewSurface) PostDelayed(r overlay.Runnable, delay time.Duration) {
	s.queue.post(r, delay)
}

func (s *TextViewSurface) RemoveCallbacks(r overlay.Runnable) {
	s.queue.remove(r)
}

// Pending reports delayed callbacks waiting to fire. UI goroutine only.
func (s *TextViewSurface) Pending() int {
	return s.queue.len()
}

// SetToggleHandler registers the action bound to the p key. The handler runs
// on the UI goroutine.
func (s *TextViewSurface) SetToggleHandler(fn func()) {
	s.toggleMu.Lock()
	s.toggle = fn
	s.toggleMu.Unlock()
}

// AppendSystem adds a line to the system pane. Safe from any goroutine.
func (s *TextViewSurface) AppendSystem(line string) {
	s.systemMu.Lock()
	s.systemLines = append(s.systemLines, line)
	if over := len(s.systemLines) - s.systemMax; over > 0 {
		s.systemLines = append(s.systemLines[:0], s.systemLines[over:]...)
	}
	text := strings.Join(s.systemLines, "\n")
	s.systemMu.Unlock()

	s.scheduler.Schedule("system", func() {
		s.systemView.SetText(text)
		s.systemView.ScrollToEnd()
	})
}

func (s *TextViewSurface) SystemWriter() io.Writer {
	return s.writer
}

func (s *TextViewSurface) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event == nil || event.Key() != tcell.KeyRune {
		return event
	}
	switch event.Rune() {
	case 'q', 'Q':
		// Refuse new posts before the application goes away.
		s.stopped.Store(true)
		s.app.Stop()
		return nil
	case 'p', 'P':
		s.toggleMu.Lock()
		toggle := s.toggle
		s.toggleMu.Unlock()
		if toggle != nil {
			s.guard(toggle)
		}
		return nil
	}
	return event
}

func (s *TextViewSurface) guard(fn func()) {
	runGuarded(fn, s.metrics, logPanic)
}
