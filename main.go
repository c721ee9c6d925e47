// Program playerdebug shows a once-per-second debug line for a playback
// session: position, selected format, bandwidth estimate and decoder counters.
// Telemetry comes from a synthetic session, a recorded trace, or an MQTT topic;
// the line is drawn by a tview dashboard, an ANSI console, or the log.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"playerdebug/config"
	"playerdebug/overlay"
	"playerdebug/telemetry"
	"playerdebug/ui"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

const (
	defaultConfigPath = "data/config"
	envConfigPath     = "PLAYERDEBUG_CONFIG"
	syntheticDuration = 10 * time.Minute
	feedStopTimeout   = 2 * time.Second
	loopStopTimeout   = time.Second
)

// Version will be set at build time
var Version = "dev"

// Purpose: Report whether stdout is a TTY for UI gating.
// Key aspects: Uses term.IsTerminal on stdout fd.
// Upstream: main UI selection.
// Downstream: term.IsTerminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Purpose: Load configuration from env/default locations.
// Key aspects: Env override first, then the default config dir; when neither
// exists the built-in defaults are used.
// Upstream: main startup.
// Downstream: loadConfigFrom.
func loadConfig() (*config.Config, string, error) {
	candidates := make([]string, 0, 2)
	if envPath := strings.TrimSpace(os.Getenv(envConfigPath)); envPath != "" {
		candidates = append(candidates, envPath)
	}
	candidates = append(candidates, defaultConfigPath)
	return loadConfigFrom(candidates)
}

func loadConfigFrom(candidates []string) (*config.Config, string, error) {
	for _, path := range candidates {
		if path == "" {
			continue
		}
		cfg, err := config.Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, path, err
		}
		return cfg, cfg.LoadedFrom, nil
	}
	return config.Default(), "built-in defaults", nil
}

// Purpose: Decide which surface to run.
// Key aspects: tview and ansi need an interactive console and fall back to
// headless otherwise; unknown modes are headless too.
// Upstream: main.
// Downstream: None.
func effectiveUIMode(mode string, renderAllowed bool) (string, string) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "headless":
		return "headless", "mode=headless"
	case "tview", "ansi":
		if !renderAllowed {
			return "headless", mode + " requires an interactive console"
		}
		return mode, ""
	default:
		return "headless", fmt.Sprintf("UI mode %q not recognized", mode)
	}
}

func newSurface(mode string, uiCfg config.UIConfig, metrics *ui.Metrics) ui.Surface {
	switch mode {
	case "tview":
		return ui.NewTextViewSurface(uiCfg, metrics)
	case "ansi":
		return ui.NewANSISurface(os.Stdout, uiCfg, metrics)
	default:
		return ui.NewHeadlessSurface(metrics)
	}
}

// overlayControl tracks whether the helper is ticking. Loop goroutine only.
type overlayControl struct {
	helper  *overlay.Helper
	running bool
}

func (c *overlayControl) Start() {
	c.helper.Start()
	c.running = true
}

func (c *overlayControl) Stop() {
	c.helper.Stop()
	c.running = false
}

func (c *overlayControl) Toggle() {
	if c.running {
		c.Stop()
		log.Printf("Overlay: paused")
		return
	}
	c.Start()
	log.Printf("Overlay: resumed")
}

// runOnLoop posts fn to the surface loop and waits for it to finish. It
// reports false when the loop has already exited or did not run fn in time.
func runOnLoop(surface ui.Surface, fn func(), timeout time.Duration) bool {
	ran := make(chan struct{})
	if !surface.Post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-surface.Done():
		return false
	case <-time.After(timeout):
		return false
	}
}

type toggleSurface interface {
	SetToggleHandler(fn func())
}

// feed is a running telemetry source.
type feed struct {
	name string
	done chan struct{}
	stop func()
}

// Purpose: Start the configured telemetry source feeding session.
// Key aspects: Replays run in a goroutine until ctx is cancelled; MQTT runs
// on paho's goroutines. A replay panic is logged rather than crashing the UI.
// Upstream: main.
// Downstream: telemetry.GenerateSession, telemetry.LoadTrace,
// telemetry.NewTraceReplay, telemetry.NewMQTTFeed.
func startFeed(ctx context.Context, cfg config.TelemetryConfig, session *telemetry.Session) (*feed, error) {
	switch cfg.Source {
	case "mqtt":
		mf := telemetry.NewMQTTFeed(cfg.MQTT.Broker, cfg.MQTT.Port, cfg.MQTT.Topic, cfg.MQTT.ClientPrefix, session)
		if err := mf.Connect(); err != nil {
			return nil, fmt.Errorf("telemetry mqtt: %w", err)
		}
		f := &feed{name: "mqtt", done: make(chan struct{})}
		f.stop = func() {
			mf.Stop()
			received, rejected := mf.Stats()
			log.Printf("MQTT: %s messages received, %s rejected", humanize.Comma(int64(received)), humanize.Comma(int64(rejected)))
			close(f.done)
		}
		return f, nil
	case "trace":
		events, err := telemetry.LoadTrace(cfg.TraceFile)
		if err != nil {
			return nil, err
		}
		size := "unknown size"
		if info, err := os.Stat(cfg.TraceFile); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		log.Printf("Telemetry: loaded %s events from %s (%s)", humanize.Comma(int64(len(events))), cfg.TraceFile, size)
		return startReplay(ctx, "trace", telemetry.NewTraceReplay(session, events, cfg.Speed, cfg.Loop)), nil
	default:
		events, err := telemetry.GenerateSession(telemetry.SyntheticOptions{
			Duration: syntheticDuration,
			Seed:     time.Now().UnixNano(),
		})
		if err != nil {
			return nil, fmt.Errorf("telemetry synthetic: %w", err)
		}
		log.Printf("Telemetry: generated synthetic session (%s events over %s)", humanize.Comma(int64(len(events))), syntheticDuration)
		return startReplay(ctx, "synthetic", telemetry.NewTraceReplay(session, events, cfg.Speed, true)), nil
	}
}

func startReplay(ctx context.Context, name string, replay *telemetry.TraceReplay) *feed {
	ctx, cancel := context.WithCancel(ctx)
	f := &feed{name: name, done: make(chan struct{}), stop: cancel}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Telemetry: %s replay panic: %v", name, r)
			}
		}()
		if err := replay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Telemetry: %s replay stopped: %v", name, err)
		}
	}()
	return f
}

func (f *feed) Stop() {
	if f == nil {
		return
	}
	f.stop()
	select {
	case <-f.done:
	case <-time.After(feedStopTimeout):
		log.Printf("Telemetry: %s feed did not stop within %s", f.name, feedStopTimeout)
	}
}

// Purpose: Program entrypoint; wires config, logging, telemetry and the surface.
// Key aspects: The helper is started and stopped on the surface's loop; the
// process exits on SIGINT/SIGTERM or when the surface closes (q in tview).
// Upstream: OS process start.
// Downstream: setupLogging, startFeed, overlay.Helper, ui surfaces.
func main() {
	cfg, configSource, err := loadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	log.Printf("Loaded configuration from %s", configSource)

	fanout, err := setupLogging(cfg.Logging, os.Stdout)
	if err != nil {
		log.Printf("Warning: file logging disabled: %v", err)
	}
	defer fanout.Close()
	log.SetFlags(0)
	log.SetOutput(fanout)

	mode, reason := effectiveUIMode(cfg.UI.Mode, isStdoutTTY())
	if reason != "" {
		log.Printf("UI: using headless surface (%s)", reason)
	}
	if mode == "headless" {
		cfg.Print()
	}

	metrics := ui.NewMetrics()
	surface := newSurface(mode, cfg.UI, metrics)
	surface.WaitReady()
	if w := surface.SystemWriter(); w != nil {
		fanout.SetConsole(w, true)
	}

	log.Printf("playerdebug v%s starting (ui=%s, telemetry=%s)", Version, mode, cfg.Telemetry.Source)
	if path := fanout.FilePath(); path != "" {
		log.Printf("Logging to %s", path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := telemetry.NewSession()
	src, err := startFeed(ctx, cfg.Telemetry, session)
	if err != nil {
		surface.Stop()
		fanout.SetConsole(os.Stdout, true)
		log.Fatalf("Error starting telemetry: %v", err)
	}

	control := &overlayControl{helper: overlay.NewHelper(session, surface)}
	if ts, ok := surface.(toggleSurface); ok {
		ts.SetToggleHandler(control.Toggle)
	}
	surface.Post(control.Start)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case <-surface.Done():
		log.Printf("UI: surface closed")
	}
	log.Println("Shutting down gracefully...")

	if !runOnLoop(surface, control.Stop, loopStopTimeout) {
		log.Printf("Overlay: stop not confirmed by the UI loop")
	}
	src.Stop()
	surface.Stop()

	fanout.SetConsole(os.Stdout, true)
	log.Printf("UI: %s", metrics.Summary())
	log.Println("Shutdown complete")
}
