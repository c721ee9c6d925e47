package overlay

import (
	"strconv"
	"strings"
)

// Snapshot holds the telemetry values read from a Provider during one tick.
type Snapshot struct {
	PositionMs int64
	Format     *Format
	// HasEstimate is false when the meter is absent or reported NoEstimate.
	HasEstimate bool
	EstimateBps int64
	// HasCodec is false when codec counters are absent.
	HasCodec bool
	CodecDebug string
}

// Sample reads each Provider accessor once.
func Sample(p Provider) Snapshot {
	s := Snapshot{
		PositionMs: p.CurrentPosition(),
		Format:     p.Format(),
	}
	if meter := p.BandwidthMeter(); meter != nil {
		if estimate := meter.BitrateEstimate(); estimate != NoEstimate {
			s.HasEstimate = true
			s.EstimateBps = estimate
		}
	}
	if counters := p.CodecCounters(); counters != nil {
		s.HasCodec = true
		s.CodecDebug = counters.DebugString()
	}
	return s
}

// FormatLine renders s as
//
//	ms(<position>) id:<id> br:<bitrate> h:<height> bw:<kbps> <codec>
//
// Missing fields render as '?'. The codec field may be empty, in which case
// the line ends with a space.
func FormatLine(s Snapshot) string {
	var b strings.Builder
	b.Grow(64 + len(s.CodecDebug))
	writeTime(&b, s.PositionMs)
	b.WriteByte(' ')
	writeQuality(&b, s.Format)
	b.WriteByte(' ')
	writeBandwidth(&b, s)
	b.WriteByte(' ')
	if s.HasCodec {
		b.WriteString(s.CodecDebug)
	}
	return b.String()
}

// Render samples p and formats the result.
func Render(p Provider) string {
	return FormatLine(Sample(p))
}

func writeTime(b *strings.Builder, positionMs int64) {
	b.WriteString("ms(")
	b.WriteString(strconv.FormatInt(positionMs, 10))
	b.WriteByte(')')
}

func writeQuality(b *strings.Builder, f *Format) {
	if f == nil {
		b.WriteString("id:? br:? h:?")
		return
	}
	b.WriteString("id:")
	b.WriteString(f.ID)
	b.WriteString(" br:")
	b.WriteString(strconv.Itoa(f.Bitrate))
	b.WriteString(" h:")
	b.WriteString(strconv.Itoa(f.Height))
}

func writeBandwidth(b *strings.Builder, s Snapshot) {
	if !s.HasEstimate {
		b.WriteString("bw:?")
		return
	}
	b.WriteString("bw:")
	b.WriteString(strconv.FormatInt(s.EstimateBps/1000, 10))
}
