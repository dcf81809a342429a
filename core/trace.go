package core

import "mcutime/protocol"

// EncodeTraceEvent writes one event: type, handle, tick, value
func EncodeTraceEvent(output protocol.OutputBuffer, evt TraceEvent) {
	protocol.EncodeVLQUint(output, uint32(evt.Type))
	protocol.EncodeVLQUint(output, uint32(evt.Handle))
	protocol.EncodeVLQUint64(output, evt.Tick)
	protocol.EncodeVLQUint64(output, evt.Value)
}

// DecodeTraceEvents decodes every event in a frame payload
func DecodeTraceEvents(payload []byte) ([]TraceEvent, error) {
	var events []TraceEvent
	data := payload
	for len(data) > 0 {
		typ, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			return events, err
		}
		h, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			return events, err
		}
		tick, err := protocol.DecodeVLQUint64(&data)
		if err != nil {
			return events, err
		}
		value, err := protocol.DecodeVLQUint64(&data)
		if err != nil {
			return events, err
		}
		events = append(events, TraceEvent{
			Type:   uint8(typ),
			Handle: Handle(h),
			Tick:   tick,
			Value:  value,
		})
	}
	return events, nil
}

// TraceFrames packs events into as few frames as fit, numbering them from
// seq. emit is called once per frame, in order.
func TraceFrames(events []TraceEvent, seq uint8, emit func(frame []byte) error) error {
	payload := protocol.NewScratchOutput()
	single := protocol.NewScratchOutput()

	flush := func() error {
		if payload.CurPosition() == 0 {
			return nil
		}
		frame, err := protocol.BuildFrame(seq, payload.Result())
		if err != nil {
			return err
		}
		seq++
		payload.Reset()
		return emit(frame)
	}

	for _, evt := range events {
		single.Reset()
		EncodeTraceEvent(single, evt)
		if payload.CurPosition()+single.CurPosition() > protocol.MessagePayloadMax {
			if err := flush(); err != nil {
				return err
			}
		}
		payload.Output(single.Result())
	}
	return flush()
}

// WriteTrace streams the driver's trace ring as frames through emit
func (d *Driver) WriteTrace(emit func(frame []byte) error) error {
	return TraceFrames(d.Trace(), 0, emit)
}
