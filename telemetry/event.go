package telemetry

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event types understood by Session.Apply.
const (
	EventPlay     = "play"
	EventPause    = "pause"
	EventSeek     = "seek"
	EventFormat   = "format"
	EventTransfer = "transfer"
	EventCodec    = "codec"

	// Live feeds report transfers as they happen; the meter times them
	// against its own clock.
	EventTransferStart = "transfer_start"
	EventBytes         = "bytes"
	EventTransferEnd   = "transfer_end"
)

// Event is one player telemetry record, as carried in trace files and MQTT
// payloads. Field names are abbreviated to keep traces compact.
type Event struct {
	T          int64  `json:"t"`               // ms offset from the start of the trace
	Type       string `json:"type"`            // one of the Event* constants
	PositionMs int64  `json:"pos,omitempty"`   // seek target
	ID         string `json:"id,omitempty"`    // format id
	Bitrate    int    `json:"br,omitempty"`    // format bitrate, bits/s
	Height     int    `json:"h,omitempty"`     // format height, px
	Bytes      int64  `json:"bytes,omitempty"` // transfer size, or bytes so far
	DurationMs int64  `json:"ms,omitempty"`    // transfer duration
	Counter    string `json:"counter,omitempty"`
	N          int64  `json:"n,omitempty"`
}

// DecodeEvent parses a single JSON event.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type")
	}
	return ev, nil
}

// ReadTrace parses a JSON-lines trace. Blank lines and lines starting with #
// are skipped.
func ReadTrace(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var events []Event
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		ev, err := DecodeEvent(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return events, nil
}

// LoadTrace reads a trace file from disk.
func LoadTrace(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	return ReadTrace(f)
}

// WriteTrace encodes events as JSON lines.
func WriteTrace(w io.Writer, events []Event) error {
	stream := json.BorrowStream(w)
	defer json.ReturnStream(stream)
	for _, ev := range events {
		stream.WriteVal(ev)
		stream.WriteRaw("\n")
		if stream.Error != nil {
			return fmt.Errorf("write trace: %w", stream.Error)
		}
	}
	if err := stream.Flush(); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}
