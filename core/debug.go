package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a scheduling event for post-mortem analysis
type TraceEvent struct {
	Type   uint8  // Event type code
	Handle Handle // Slot involved, if any
	Tick   uint64 // Clock at event
	Value  uint64 // Context-dependent value (deadline, compare value, ...)
}

// Event type codes
const (
	EvtAllocate  = 1 // Slot allocated by AllocateAlarm
	EvtSetAlarm  = 2 // Deadline set or moved
	EvtWake      = 3 // Wake scheduled in a fresh slot
	EvtCoalesce  = 4 // Wake merged into an existing entry
	EvtFire      = 5 // Entry popped and dispatched
	EvtOverflow  = 6 // Counter overflow serviced
	EvtArm       = 7 // Compare match programmed
	EvtDisarm    = 8 // Compare match disabled
	EvtExhausted = 9 // Allocation failed
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

// EventName returns a short label for an event type
func EventName(t uint8) string {
	switch t {
	case EvtAllocate:
		return "ALLOC"
	case EvtSetAlarm:
		return "SET"
	case EvtWake:
		return "WAKE"
	case EvtCoalesce:
		return "COALESCE"
	case EvtFire:
		return "FIRE"
	case EvtOverflow:
		return "OVERFLOW"
	case EvtArm:
		return "ARM"
	case EvtDisarm:
		return "DISARM"
	case EvtExhausted:
		return "EXHAUSTED!"
	default:
		return "UNKNOWN"
	}
}

// traceRing is a fixed ring of recent events; written inside the critical section
type traceRing struct {
	events [TraceRingSize]TraceEvent
	head   uint8
	count  uint8
}

func (r *traceRing) record(eventType uint8, h Handle, tick, value uint64) {
	idx := r.head
	r.events[idx] = TraceEvent{
		Type:   eventType,
		Handle: h,
		Tick:   tick,
		Value:  value,
	}
	r.head = (idx + 1) % TraceRingSize
	if r.count < TraceRingSize {
		r.count++
	}
}

// snapshot appends events oldest to newest
func (r *traceRing) snapshot(dst []TraceEvent) []TraceEvent {
	start := (r.head + TraceRingSize - r.count) % TraceRingSize
	for i := uint8(0); i < r.count; i++ {
		dst = append(dst, r.events[(start+i)%TraceRingSize])
	}
	return dst
}

func (r *traceRing) lastType() uint8 {
	if r.count == 0 {
		return 0
	}
	return r.events[(r.head+TraceRingSize-1)%TraceRingSize].Type
}

func (r *traceRing) clear() {
	*r = traceRing{}
}

// debug writes a debug line if debug output is enabled
func (d *Driver) debug(msg string) {
	if d.debugEnabled && d.debugWriter != nil {
		d.debugWriter(msg)
	}
}

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func (d *Driver) SetDebugWriter(writer DebugWriter) {
	state := d.cs.enter()
	d.debugWriter = writer
	d.cs.exit(state)
}

// SetDebugEnabled enables or disables debug output
func (d *Driver) SetDebugEnabled(enabled bool) {
	state := d.cs.enter()
	d.debugEnabled = enabled
	d.cs.exit(state)
}

// Trace returns the recorded events, oldest first
func (d *Driver) Trace() []TraceEvent {
	state := d.cs.enter()
	events := d.trace.snapshot(make([]TraceEvent, 0, TraceRingSize))
	d.cs.exit(state)
	return events
}

// ClearTrace empties the trace ring
func (d *Driver) ClearTrace() {
	state := d.cs.enter()
	d.trace.clear()
	d.cs.exit(state)
}

// TakeTrace returns the recorded events and empties the ring in one step, so
// a periodic exporter neither repeats nor loses events
func (d *Driver) TakeTrace() []TraceEvent {
	state := d.cs.enter()
	events := d.trace.snapshot(make([]TraceEvent, 0, TraceRingSize))
	d.trace.clear()
	d.cs.exit(state)
	return events
}

// DumpTrace outputs the trace ring through the debug writer (call on fault)
func (d *Driver) DumpTrace() {
	state := d.cs.enter()
	writer := d.debugWriter
	d.cs.exit(state)
	if writer == nil {
		return
	}

	writer("[TRACE] === Trace Ring Dump ===")
	for _, evt := range d.Trace() {
		writer("[TRACE] " + EventName(evt.Type) +
			" h=" + itoa(int(evt.Handle)) +
			" tick=" + utoa(evt.Tick) +
			" v=" + utoa(evt.Value))
	}
	writer("[TRACE] === End Dump ===")
}
