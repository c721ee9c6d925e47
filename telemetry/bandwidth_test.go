package telemetry

import (
	"testing"
	"time"

	"playerdebug/overlay"
)

func TestSlidingBandwidthMeterNoEstimateInitially(t *testing.T) {
	m := NewSlidingBandwidthMeter(0)
	if got := m.BitrateEstimate(); got != overlay.NoEstimate {
		t.Fatalf("expected NoEstimate, got %d", got)
	}
	m.RecordTransfer(1000, 0)
	if got := m.BitrateEstimate(); got != overlay.NoEstimate {
		t.Fatalf("expected zero-duration transfer to be ignored, got %d", got)
	}
}

func TestSlidingBandwidthMeterSingleTransfer(t *testing.T) {
	m := NewSlidingBandwidthMeter(DefaultMaxWeight)
	m.RecordTransfer(1_000_000, time.Second)
	if got := m.BitrateEstimate(); got != 8_000_000 {
		t.Fatalf("expected 8000000 bps, got %d", got)
	}
}

func TestSlidingBandwidthMeterMedian(t *testing.T) {
	m := NewSlidingBandwidthMeter(DefaultMaxWeight)
	// Equal sizes give equal weights, so the estimate is the plain median.
	m.RecordTransfer(10_000, 100*time.Millisecond) // 800 kbps
	m.RecordTransfer(10_000, 40*time.Millisecond)  // 2 Mbps
	m.RecordTransfer(10_000, 20*time.Millisecond)  // 4 Mbps
	if got := m.BitrateEstimate(); got != 2_000_000 {
		t.Fatalf("expected median 2000000 bps, got %d", got)
	}
}

func TestSlidingBandwidthMeterWindowForgetsOldSamples(t *testing.T) {
	m := NewSlidingBandwidthMeter(200)
	// sqrt(10000) = 100 weight each; the window holds two samples.
	m.RecordTransfer(10_000, 10*time.Millisecond) // 8 Mbps
	m.RecordTransfer(10_000, 80*time.Millisecond) // 1 Mbps
	m.RecordTransfer(10_000, 80*time.Millisecond) // 1 Mbps
	if got := m.BitrateEstimate(); got != 1_000_000 {
		t.Fatalf("expected old sample to be evicted, got %d", got)
	}
}

func TestSlidingBandwidthMeterTransferLifecycle(t *testing.T) {
	now := newFakeNow()
	m := NewSlidingBandwidthMeter(DefaultMaxWeight)
	m.now = now.Now

	m.OnTransferEnd() // unmatched end is ignored
	m.OnTransferStart()
	m.OnBytesTransferred(250_000)
	m.OnBytesTransferred(250_000)
	now.Advance(500 * time.Millisecond)
	m.OnTransferEnd()
	if got := m.BitrateEstimate(); got != 8_000_000 {
		t.Fatalf("expected 8000000 bps, got %d", got)
	}
}
