// Package mcu reads the scheduling trace streamed by a device running the
// time driver.
package mcu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"mcutime/core"
	"mcutime/protocol"
)

// Stats counts what the reader has seen so far
type Stats struct {
	Frames  int // valid frames decoded
	Events  int // events decoded
	Dropped int // bytes discarded while resynchronizing
	Gaps    int // frames missing according to the sequence numbers
}

// TraceReader extracts trace frames from a byte stream
type TraceReader struct {
	port  io.Reader
	fifo  *protocol.FifoBuffer
	chunk []byte

	// Follow keeps waiting at end of stream (live capture) instead of
	// returning io.EOF. PollInterval is the wait between attempts.
	Follow       bool
	PollInterval time.Duration

	haveSeq bool
	nextSeq uint8
	stats   Stats
}

// NewTraceReader creates a reader on top of port
func NewTraceReader(port io.Reader) *TraceReader {
	return &TraceReader{
		port:         port,
		fifo:         protocol.NewFifoBuffer(protocol.MessageMax),
		chunk:        make([]byte, 128),
		PollInterval: 20 * time.Millisecond,
	}
}

// Stats returns the reader counters
func (r *TraceReader) Stats() Stats {
	return r.stats
}

// Next returns the events of the next valid frame
func (r *TraceReader) Next(ctx context.Context) ([]core.TraceEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg, ok := r.extract()
		if ok {
			events, err := core.DecodeTraceEvents(msg.Payload)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", msg.Sequence, err)
			}
			r.track(msg.Sequence)
			r.stats.Frames++
			r.stats.Events += len(events)
			return events, nil
		}

		if err := r.fill(ctx); err != nil {
			return nil, err
		}
	}
}

// extract pops the first valid frame from the buffer, discarding garbage
// in front of it
func (r *TraceReader) extract() (protocol.Message, bool) {
	for r.fifo.Available() > 0 {
		data := r.fifo.Data()
		if data[0] == protocol.MessageValueSync {
			r.fifo.Pop(1)
			continue
		}

		msg, n, err := protocol.ParseFrame(data)
		switch {
		case err == nil:
			// Copy before popping: Data may alias the ring
			msg.Payload = append([]byte(nil), msg.Payload...)
			r.fifo.Pop(n)
			return msg, true
		case errors.Is(err, protocol.ErrIncomplete):
			return protocol.Message{}, false
		default:
			r.fifo.Pop(1)
			r.stats.Dropped++
		}
	}
	return protocol.Message{}, false
}

// fill reads more bytes from the port
func (r *TraceReader) fill(ctx context.Context) error {
	n, err := r.port.Read(r.chunk[:min(len(r.chunk), r.fifo.Free())])
	if n > 0 {
		r.fifo.Write(r.chunk[:n])
		return nil
	}
	if err == nil || (errors.Is(err, io.EOF) && r.Follow) {
		// Read timeout on a live port
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.PollInterval):
			return nil
		}
	}
	if errors.Is(err, io.EOF) && r.fifo.Available() > 0 {
		r.stats.Dropped += r.fifo.Available()
		r.fifo.Reset()
	}
	return err
}

func (r *TraceReader) track(seq uint8) {
	if r.haveSeq && seq != r.nextSeq {
		r.stats.Gaps += int((seq - r.nextSeq) & protocol.MessageSeqMask)
	}
	r.haveSeq = true
	r.nextSeq = (seq + 1) & protocol.MessageSeqMask
}

// Format renders an event the way DumpTrace does
func Format(evt core.TraceEvent) string {
	return fmt.Sprintf("%-10s h=%d tick=%d v=%d", core.EventName(evt.Type), evt.Handle, evt.Tick, evt.Value)
}
