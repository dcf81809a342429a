// Package core implements the time driver of a bare-metal microcontroller:
// a fixed pool of alarm slots, a deadline-ordered queue threaded through it,
// a 64-bit tick clock extended from a narrow hardware counter, and the
// interrupt handlers that fire due entries.
package core

// Driver owns all timer state. Create it once at startup with New and keep
// it for the program lifetime. Every method is safe to call from foreground
// code while the interrupt handlers may preempt it.
type Driver struct {
	cs  criticalSection
	cfg Config
	hw  Counter

	pool  alarmPool
	queue deadlineQueue
	clock tickClock
	sched alarmScheduler
	trace traceRing

	// debugWriter is called inside the critical section and must not call
	// back into the driver
	debugWriter  DebugWriter
	debugEnabled bool
}

// New validates cfg and initializes a driver on top of hw: every slot free,
// both lists empty, clock and hardware counter zeroed
func New(cfg Config, hw Counter) (*Driver, error) {
	if hw == nil {
		return nil, ErrNilCounter
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{
		cfg:          cfg,
		hw:           hw,
		debugWriter:  cfg.Debug,
		debugEnabled: cfg.DebugEnabled,
	}
	d.Reset()
	return d, nil
}

// Reset returns the driver to its startup state. Queued entries are dropped
// without firing.
func (d *Driver) Reset() {
	state := d.cs.enter()
	defer d.cs.exit(state)

	d.pool.init(d.cfg.Capacity)
	d.queue.init(&d.pool)
	d.clock.init(&d.cfg, d.hw)
	d.sched.init(&d.cfg, d.hw)
	d.trace.clear()
	if r, ok := d.hw.(Resetter); ok {
		r.Reset()
	}
	if d.cfg.Mode == ModeFine {
		d.hw.EnableCompare(false)
	}
}

// Config returns the configuration the driver was built with
func (d *Driver) Config() Config {
	return d.cfg
}

// Now returns the monotonic tick count
func (d *Driver) Now() uint64 {
	state := d.cs.enter()
	now := d.clock.now()
	d.cs.exit(state)
	return now
}

// AllocateAlarm reserves a slot. It returns false when the pool is exhausted;
// the caller should back off and retry later.
func (d *Driver) AllocateAlarm() (Handle, bool) {
	state := d.cs.enter()
	defer d.cs.exit(state)

	h, ok := d.pool.allocate()
	if !ok {
		d.trace.record(EvtExhausted, 0, d.clock.now(), 0)
		d.debug("[TIME] alarm pool exhausted")
		return 0, false
	}
	d.trace.record(EvtAllocate, h, d.clock.now(), 0)
	return h, true
}

// SetAlarmCallback attaches fn to h. It does not arm the alarm.
func (d *Driver) SetAlarmCallback(h Handle, fn func(ctx any), ctx any) {
	state := d.cs.enter()
	defer d.cs.exit(state)

	if !d.pool.valid(h) {
		assert(false, "callback set on invalid handle "+itoa(int(h)))
		return
	}
	s := &d.pool.slots[h]
	assert(s.where != slotFree, "callback set on free slot "+itoa(int(h)))
	if fn == nil {
		s.action = Action{}
		return
	}
	s.action = CallbackAction(fn, ctx)
}

// SetAlarm queues h to fire at deadline, moving it if it is already queued.
// The hardware alarm is re-armed when the queue head changes.
// It always returns true; a deadline already in the past fires on the next
// interrupt.
func (d *Driver) SetAlarm(h Handle, deadline uint64) bool {
	state := d.cs.enter()
	defer d.cs.exit(state)

	if !d.pool.valid(h) || d.pool.slots[h].where == slotFree {
		assert(false, "alarm set on unallocated handle "+itoa(int(h)))
		return true
	}

	oldHead := d.queue.head
	d.queue.reschedule(h, deadline)
	d.trace.record(EvtSetAlarm, h, d.clock.now(), deadline)
	if d.queue.head != oldHead || d.queue.head == int16(h) {
		d.rearm()
	}
	return true
}

// ScheduleWake arranges for w to be woken at deadline. A task already
// waiting keeps a single entry at the earlier of the two deadlines.
// It panics if the pool is exhausted: a lost wake would stall the task.
func (d *Driver) ScheduleWake(deadline uint64, w Waker) {
	state := d.cs.enter()

	if h, ok := d.queue.findWaker(w); ok {
		if d.pool.slots[h].deadline > deadline {
			oldHead := d.queue.head
			d.queue.reschedule(h, deadline)
			if d.queue.head != oldHead || d.queue.head == int16(h) {
				d.rearm()
			}
		}
		d.trace.record(EvtCoalesce, h, d.clock.now(), d.pool.slots[h].deadline)
		d.cs.exit(state)
		return
	}

	h, ok := d.pool.allocate()
	if !ok {
		d.trace.record(EvtExhausted, 0, d.clock.now(), deadline)
		d.cs.exit(state)
		panic("mcutime: alarm pool full, increase Config.Capacity")
	}
	d.pool.slots[h].action = WakeAction(w)
	oldHead := d.queue.head
	d.queue.insert(h, deadline)
	d.trace.record(EvtWake, h, d.clock.now(), deadline)
	if d.queue.head != oldHead {
		d.rearm()
	}
	d.cs.exit(state)
}

// Pending returns the queued entries in firing order
func (d *Driver) Pending() []Entry {
	state := d.cs.enter()
	defer d.cs.exit(state)
	return d.queue.walk(make([]Entry, 0, d.cfg.Capacity))
}

// Free returns the number of unallocated slots
func (d *Driver) Free() int {
	state := d.cs.enter()
	defer d.cs.exit(state)
	return d.pool.free
}

// TicksFromMicros converts microseconds to ticks. It returns us unchanged if
// the tick rate is unknown.
func (d *Driver) TicksFromMicros(us uint64) uint64 {
	rate := d.cfg.tickRate()
	if rate == 0 {
		return us
	}
	return us * rate / 1000000
}

// MicrosFromTicks converts ticks to microseconds
func (d *Driver) MicrosFromTicks(ticks uint64) uint64 {
	rate := d.cfg.tickRate()
	if rate == 0 {
		return ticks
	}
	return ticks * 1000000 / rate
}
