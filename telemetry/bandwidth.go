package telemetry

import (
	"math"
	"sort"
	"sync"
	"time"

	"playerdebug/overlay"
)

const (
	// DefaultMaxWeight bounds the sliding window, measured in sqrt(bytes).
	DefaultMaxWeight   = 2000
	estimatePercentile = 0.5
)

type weightedSample struct {
	index  int
	weight int
	value  float64
}

// slidingPercentile computes a weighted percentile over the most recent
// samples whose combined weight fits in maxWeight.
type slidingPercentile struct {
	maxWeight   int
	samples     []weightedSample
	nextIndex   int
	totalWeight int
}

func newSlidingPercentile(maxWeight int) *slidingPercentile {
	return &slidingPercentile{maxWeight: maxWeight}
}

func (p *slidingPercentile) addSample(weight int, value float64) {
	if weight <= 0 {
		weight = 1
	}
	p.samples = append(p.samples, weightedSample{index: p.nextIndex, weight: weight, value: value})
	p.nextIndex++
	p.totalWeight += weight

	// Samples are appended in index order, so the front is always the oldest.
	for p.totalWeight > p.maxWeight && len(p.samples) > 0 {
		excess := p.totalWeight - p.maxWeight
		oldest := &p.samples[0]
		if oldest.weight <= excess {
			p.totalWeight -= oldest.weight
			p.samples = p.samples[1:]
			continue
		}
		oldest.weight -= excess
		p.totalWeight -= excess
	}
}

// percentile returns NaN when no samples are held.
func (p *slidingPercentile) percentile(fraction float64) float64 {
	if len(p.samples) == 0 {
		return math.NaN()
	}
	sorted := make([]weightedSample, len(p.samples))
	copy(sorted, p.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].value < sorted[j].value })
	desired := fraction * float64(p.totalWeight)
	accumulated := 0
	for _, s := range sorted {
		accumulated += s.weight
		if float64(accumulated) >= desired {
			return s.value
		}
	}
	return sorted[len(sorted)-1].value
}

// SlidingBandwidthMeter estimates throughput from completed transfers. The
// estimate is the weighted median of per-transfer bitrates, weighting each
// transfer by the square root of its size. Safe for concurrent use.
type SlidingBandwidthMeter struct {
	mu          sync.Mutex
	now         func() time.Time
	window      *slidingPercentile
	streams     int
	startedAt   time.Time
	accumulated int64
	estimate    int64
}

func NewSlidingBandwidthMeter(maxWeight int) *SlidingBandwidthMeter {
	if maxWeight <= 0 {
		maxWeight = DefaultMaxWeight
	}
	return &SlidingBandwidthMeter{
		now:      time.Now,
		window:   newSlidingPercentile(maxWeight),
		estimate: overlay.NoEstimate,
	}
}

// BitrateEstimate returns bits per second, or overlay.NoEstimate.
func (m *SlidingBandwidthMeter) BitrateEstimate() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.estimate
}

// OnTransferStart marks the start of a transfer. Overlapping transfers share
// one measurement window.
func (m *SlidingBandwidthMeter) OnTransferStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streams == 0 {
		m.startedAt = m.now()
	}
	m.streams++
}

func (m *SlidingBandwidthMeter) OnBytesTransferred(n int64) {
	m.mu.Lock()
	m.accumulated += n
	m.mu.Unlock()
}

// OnTransferEnd closes a transfer and folds the window into the estimate.
// Calls without a matching OnTransferStart are ignored.
func (m *SlidingBandwidthMeter) OnTransferEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streams == 0 {
		return
	}
	now := m.now()
	m.addSampleLocked(m.accumulated, now.Sub(m.startedAt))
	m.streams--
	if m.streams > 0 {
		m.startedAt = now
	}
	m.accumulated = 0
}

// RecordTransfer adds a completed transfer of n bytes that took elapsed.
func (m *SlidingBandwidthMeter) RecordTransfer(n int64, elapsed time.Duration) {
	m.mu.Lock()
	m.addSampleLocked(n, elapsed)
	m.mu.Unlock()
}

func (m *SlidingBandwidthMeter) addSampleLocked(n int64, elapsed time.Duration) {
	elapsedMs := elapsed.Milliseconds()
	if elapsedMs <= 0 {
		return
	}
	bitsPerSecond := float64(n*8000) / float64(elapsedMs)
	m.window.addSample(int(math.Sqrt(float64(n))), bitsPerSecond)
	estimate := m.window.percentile(estimatePercentile)
	if math.IsNaN(estimate) {
		m.estimate = overlay.NoEstimate
		return
	}
	m.estimate = int64(estimate)
}
