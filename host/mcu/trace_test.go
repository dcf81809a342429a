package mcu

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"mcutime/core"
	"mcutime/protocol"
)

func buildStream(t *testing.T, events []core.TraceEvent, seq uint8) []byte {
	t.Helper()

	var stream bytes.Buffer
	err := core.TraceFrames(events, seq, func(frame []byte) error {
		stream.Write(frame)
		return nil
	})
	if err != nil {
		t.Fatalf("TraceFrames failed: %v", err)
	}
	return stream.Bytes()
}

func sampleEvents(n int) []core.TraceEvent {
	var events []core.TraceEvent
	for i := 0; i < n; i++ {
		events = append(events, core.TraceEvent{
			Type:   core.EvtSetAlarm,
			Handle: core.Handle(i % 4),
			Tick:   uint64(i * 10),
			Value:  uint64(i*10 + 5),
		})
	}
	return events
}

func readAll(t *testing.T, r *TraceReader) []core.TraceEvent {
	t.Helper()

	var all []core.TraceEvent
	for {
		events, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return all
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		all = append(all, events...)
	}
}

func TestTraceReaderDecodesStream(t *testing.T) {
	events := sampleEvents(12)
	r := NewTraceReader(bytes.NewReader(buildStream(t, events, 0)))

	got := readAll(t, r)
	if len(got) != len(events) {
		t.Fatalf("Expected %d events, got %d", len(events), len(got))
	}
	for i := range events {
		if got[i] != events[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, events[i], got[i])
		}
	}

	stats := r.Stats()
	if stats.Events != len(events) || stats.Dropped != 0 || stats.Gaps != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestTraceReaderResynchronizes(t *testing.T) {
	events := sampleEvents(3)
	stream := append([]byte{0x01, 0xFF, 0x42}, buildStream(t, events, 0)...)
	stream = append(stream, 0x09, 0x10) // truncated tail

	r := NewTraceReader(bytes.NewReader(stream))
	got := readAll(t, r)

	if len(got) != len(events) {
		t.Errorf("Expected %d events after garbage, got %d", len(events), len(got))
	}
	if r.Stats().Dropped != 5 {
		t.Errorf("Expected 5 dropped bytes, got %d", r.Stats().Dropped)
	}
}

func TestTraceReaderCountsGaps(t *testing.T) {
	first := buildStream(t, sampleEvents(1), 2)
	second := buildStream(t, sampleEvents(1), 5)

	r := NewTraceReader(bytes.NewReader(append(first, second...)))
	readAll(t, r)

	if r.Stats().Gaps != 2 {
		t.Errorf("Expected 2 missing frames, got %d", r.Stats().Gaps)
	}
}

func TestTraceReaderFollowHonoursContext(t *testing.T) {
	r := NewTraceReader(bytes.NewReader(nil))
	r.Follow = true
	r.PollInterval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := r.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestTraceReaderRejectsBadPayload(t *testing.T) {
	frame, err := protocol.BuildFrame(0, []byte{0x80})
	if err != nil {
		t.Fatal(err)
	}
	r := NewTraceReader(bytes.NewReader(frame))
	if _, err := r.Next(context.Background()); err == nil || errors.Is(err, io.EOF) {
		t.Errorf("Expected decode error, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	line := Format(core.TraceEvent{Type: core.EvtFire, Handle: 3, Tick: 100, Value: 1})
	if !strings.HasPrefix(line, "FIRE") || !strings.Contains(line, "tick=100") {
		t.Errorf("Unexpected format %q", line)
	}
}
