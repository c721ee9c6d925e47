package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"

	"playerdebug/overlay"
)

// Session is the live state of one playback session. Feeds update it from
// their own goroutines while the overlay reads it on the UI goroutine.
type Session struct {
	clock       *StandaloneClock
	format      atomic.Pointer[overlay.Format]
	meter       *SlidingBandwidthMeter
	meterActive atomic.Bool
	counters    *CodecCounters
	codecActive atomic.Bool
}

var _ overlay.Provider = (*Session)(nil)

func NewSession() *Session {
	return &Session{
		clock:    NewStandaloneClock(),
		meter:    NewSlidingBandwidthMeter(DefaultMaxWeight),
		counters: &CodecCounters{},
	}
}

func (s *Session) CurrentPosition() int64 {
	return s.clock.PositionMs()
}

// Format returns the selected format, or nil before one is reported.
func (s *Session) Format() *overlay.Format {
	return s.format.Load()
}

// BandwidthMeter returns nil until the first transfer is seen.
func (s *Session) BandwidthMeter() overlay.BandwidthMeter {
	if !s.meterActive.Load() {
		return nil
	}
	return s.meter
}

// CodecCounters returns nil until a decoder reports its first counter.
func (s *Session) CodecCounters() overlay.CodecCounters {
	if !s.codecActive.Load() {
		return nil
	}
	return s.counters
}

// Apply folds ev into the session.
func (s *Session) Apply(ev Event) error {
	switch ev.Type {
	case EventPlay:
		s.clock.Start()
	case EventPause:
		s.clock.Stop()
	case EventSeek:
		s.clock.SetPositionMs(ev.PositionMs)
	case EventFormat:
		if ev.ID == "" {
			s.format.Store(nil)
			return nil
		}
		s.format.Store(&overlay.Format{ID: ev.ID, Bitrate: ev.Bitrate, Height: ev.Height})
	case EventTransfer:
		if ev.Bytes < 0 || ev.DurationMs < 0 {
			return fmt.Errorf("transfer event with negative size or duration")
		}
		s.meterActive.Store(true)
		s.meter.RecordTransfer(ev.Bytes, time.Duration(ev.DurationMs)*time.Millisecond)
	case EventTransferStart:
		s.meterActive.Store(true)
		s.meter.OnTransferStart()
	case EventBytes:
		if ev.Bytes < 0 {
			return fmt.Errorf("bytes event with negative size")
		}
		s.meter.OnBytesTransferred(ev.Bytes)
	case EventTransferEnd:
		s.meter.OnTransferEnd()
	case EventCodec:
		if err := s.counters.Add(ev.Counter, ev.N); err != nil {
			return err
		}
		s.codecActive.Store(true)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

// Reset returns the session to its initial state: position 0, paused, with
// format, meter and counters absent. The meter keeps its history.
func (s *Session) Reset() {
	s.clock.Stop()
	s.clock.SetPositionMs(0)
	s.format.Store(nil)
	s.meterActive.Store(false)
	s.counters.Reset()
	s.codecActive.Store(false)
}
