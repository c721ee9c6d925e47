package telemetry

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Rung is one entry of an adaptive bitrate ladder.
type Rung struct {
	ID      string
	Bitrate int
	Height  int
}

// DefaultLadder is a typical five-rung video ladder.
var DefaultLadder = []Rung{
	{ID: "v0", Bitrate: 300_000, Height: 240},
	{ID: "v1", Bitrate: 750_000, Height: 360},
	{ID: "v2", Bitrate: 1_500_000, Height: 480},
	{ID: "v3", Bitrate: 2_500_000, Height: 720},
	{ID: "v4", Bitrate: 5_000_000, Height: 1080},
}

const (
	segmentDuration = 2 * time.Second
	framesPerSecond = 30
	// adaptation keeps this share of measured throughput as headroom.
	bandwidthFraction = 0.75
)

// SyntheticOptions shapes a generated session.
type SyntheticOptions struct {
	Duration time.Duration
	Ladder   []Rung
	Seed     int64
	// MinBps and MaxBps bound the simulated network throughput.
	MinBps int64
	MaxBps int64
}

func (o *SyntheticOptions) normalize() {
	if o.Duration <= 0 {
		o.Duration = 2 * time.Minute
	}
	if len(o.Ladder) == 0 {
		o.Ladder = DefaultLadder
	}
	if o.MinBps <= 0 {
		o.MinBps = 1_000_000
	}
	if o.MaxBps < o.MinBps {
		o.MaxBps = 10 * o.MinBps
	}
}

// GenerateSession produces a plausible adaptive-streaming trace: segment
// transfers over a wandering network, format switches driven by measured
// throughput, and decoder counters ticking with rendered frames.
func GenerateSession(opts SyntheticOptions) ([]Event, error) {
	opts.normalize()
	for _, r := range opts.Ladder {
		if r.ID == "" || r.Bitrate <= 0 {
			return nil, fmt.Errorf("invalid ladder rung %+v", r)
		}
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	events := []Event{
		{T: 0, Type: EventCodec, Counter: CounterCodecInit, N: 1},
		{T: 0, Type: EventCodec, Counter: CounterOutputFormatChanged, N: 1},
	}
	current := 0
	events = append(events, formatEvent(0, opts.Ladder[current]))

	throughput := opts.MinBps + rng.Int63n(opts.MaxBps-opts.MinBps+1)
	totalMs := opts.Duration.Milliseconds()
	segmentMs := segmentDuration.Milliseconds()
	nowMs := int64(0)
	played := false

	for nowMs < totalMs {
		rung := opts.Ladder[current]
		bytes := int64(rung.Bitrate) * segmentMs / 8000
		transferMs := bytes * 8000 / throughput
		if transferMs <= 0 {
			transferMs = 1
		}
		nowMs += transferMs
		events = append(events, Event{T: nowMs, Type: EventTransfer, Bytes: bytes, DurationMs: transferMs})
		if !played {
			events = append(events, Event{T: nowMs, Type: EventPlay})
			played = true
		}

		next := pickRung(opts.Ladder, throughput)
		if next != current {
			current = next
			events = append(events, formatEvent(nowMs, opts.Ladder[current]))
			events = append(events, Event{T: nowMs, Type: EventCodec, Counter: CounterOutputFormatChanged, N: 1})
		}

		// Playback renders a segment's worth of frames while the next one loads.
		segmentEnd := nowMs + segmentMs
		for t := nowMs + 1000; t <= segmentEnd && t < totalMs; t += 1000 {
			events = append(events, Event{T: t, Type: EventCodec, Counter: CounterRendered, N: framesPerSecond})
			if rng.Intn(10) == 0 {
				events = append(events, Event{T: t, Type: EventCodec, Counter: CounterDropped, N: int64(1 + rng.Intn(3))})
			}
		}
		nowMs = segmentEnd - transferMs/2

		// Random walk the network within bounds.
		step := (rng.Int63n(2*opts.MinBps+1) - opts.MinBps) / 2
		throughput += step
		if throughput < opts.MinBps {
			throughput = opts.MinBps
		}
		if throughput > opts.MaxBps {
			throughput = opts.MaxBps
		}
	}
	sortEvents(events)
	return events, nil
}

func formatEvent(t int64, r Rung) Event {
	return Event{T: t, Type: EventFormat, ID: r.ID, Bitrate: r.Bitrate, Height: r.Height}
}

// pickRung returns the highest rung that fits within the usable share of
// throughput, or the lowest rung when none fits.
func pickRung(ladder []Rung, throughput int64) int {
	usable := float64(throughput) * bandwidthFraction
	best := 0
	for i, r := range ladder {
		if float64(r.Bitrate) <= usable && r.Bitrate >= ladder[best].Bitrate {
			best = i
		}
	}
	return best
}

func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].T < events[j].T })
}
