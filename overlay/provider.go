// Package overlay renders playback telemetry as a single debug line and keeps
// a display surface refreshed with it once per second.
//
// Everything in this package runs on the surface's event goroutine. Nothing
// here locks or spawns goroutines; callers provide the loop.
package overlay

import "time"

// NoEstimate is returned by BandwidthMeter.BitrateEstimate before the meter
// has produced its first estimate.
const NoEstimate int64 = -1

// Format describes the currently selected track.
type Format struct {
	ID      string
	Bitrate int // bits per second
	Height  int // pixels
}

// BandwidthMeter reports the current bandwidth estimate in bits per second,
// or NoEstimate.
type BandwidthMeter interface {
	BitrateEstimate() int64
}

// CodecCounters exposes a pre-formatted decoder counter summary.
type CodecCounters interface {
	DebugString() string
}

// Provider is a read-only view over current playback telemetry. Absent values
// are reported as nil. Implementations must return an untyped nil for absent
// interfaces; a typed nil pointer is treated as present.
type Provider interface {
	CurrentPosition() int64
	Format() *Format
	BandwidthMeter() BandwidthMeter
	CodecCounters() CodecCounters
}

// Runnable is a callback posted to a Surface. Surfaces match callbacks by
// interface equality, so implementations must be comparable (pointer types).
type Runnable interface {
	Run()
}

// Surface is a text display owned by a single-threaded event loop.
type Surface interface {
	// SetText replaces the displayed text.
	SetText(text string)
	// PostDelayed runs r on the event loop after delay.
	PostDelayed(r Runnable, delay time.Duration)
	// RemoveCallbacks drops every pending post of r. A removed callback never
	// runs, even if its delay already elapsed.
	RemoveCallbacks(r Runnable)
}
