package core

import (
	"testing"

	"mcutime/protocol"
)

func TestTraceFramesRoundTrip(t *testing.T) {
	var events []TraceEvent
	for i := 0; i < 20; i++ {
		events = append(events, TraceEvent{
			Type:   EvtFire,
			Handle: Handle(i % 8),
			Tick:   uint64(i) << 33,
			Value:  uint64(i * 1000),
		})
	}

	var frames [][]byte
	err := TraceFrames(events, 0, func(frame []byte) error {
		frames = append(frames, frame)
		return nil
	})
	if err != nil {
		t.Fatalf("TraceFrames failed: %v", err)
	}
	if len(frames) < 2 {
		t.Errorf("Expected events split over several frames, got %d", len(frames))
	}

	var decoded []TraceEvent
	for i, frame := range frames {
		msg, _, err := protocol.ParseFrame(frame)
		if err != nil {
			t.Fatalf("Frame %d invalid: %v", i, err)
		}
		if msg.Sequence != uint8(i)&protocol.MessageSeqMask {
			t.Errorf("Expected sequence %d, got %d", i, msg.Sequence)
		}
		evts, err := DecodeTraceEvents(msg.Payload)
		if err != nil {
			t.Fatalf("Frame %d decode failed: %v", i, err)
		}
		decoded = append(decoded, evts...)
	}

	if len(decoded) != len(events) {
		t.Fatalf("Expected %d events, got %d", len(events), len(decoded))
	}
	for i := range events {
		if decoded[i] != events[i] {
			t.Errorf("Event %d mismatch: expected %+v, got %+v", i, events[i], decoded[i])
		}
	}
}

func TestWriteTraceFromDriver(t *testing.T) {
	d, hw := newTestDriver(t, testConfig(ModeFine))
	d.ScheduleWake(30, &countingWaker{})
	advanceTicks(d, hw, 30)

	var decoded []TraceEvent
	err := d.WriteTrace(func(frame []byte) error {
		msg, _, err := protocol.ParseFrame(frame)
		if err != nil {
			return err
		}
		evts, err := DecodeTraceEvents(msg.Payload)
		decoded = append(decoded, evts...)
		return err
	})
	if err != nil {
		t.Fatalf("WriteTrace failed: %v", err)
	}

	trace := d.Trace()
	if len(decoded) != len(trace) {
		t.Fatalf("Expected %d events, got %d", len(trace), len(decoded))
	}
	if decoded[0].Type != EvtWake || decoded[0].Value != 30 {
		t.Errorf("Expected first event WAKE at 30, got %+v", decoded[0])
	}
}

func TestDecodeTraceEventsTruncated(t *testing.T) {
	out := protocol.NewScratchOutput()
	EncodeTraceEvent(out, TraceEvent{Type: EvtArm, Handle: 2, Tick: 5, Value: 9})
	data := out.Result()

	if _, err := DecodeTraceEvents(data[:len(data)-1]); err == nil {
		t.Error("Expected error for truncated event")
	}
}
