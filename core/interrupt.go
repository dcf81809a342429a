package core

// OnOverflow is the counter overflow interrupt handler. It advances the
// clock by one span, fires every entry due at the new accumulator value and
// re-arms the compare match for whatever is left.
func (d *Driver) OnOverflow() {
	state := d.cs.enter()
	now := d.clock.overflow()
	d.trace.record(EvtOverflow, 0, now, uint64(d.pool.free))
	d.cs.exit(state)

	d.drain(now)
}

// OnCompareMatch is the compare-match interrupt handler (fine mode only).
func (d *Driver) OnCompareMatch() {
	if d.cfg.Mode != ModeFine {
		return
	}

	state := d.cs.enter()
	now := d.clock.now()
	d.cs.exit(state)

	d.drain(now)
}

// drain pops due entries one critical section at a time and dispatches each
// with interrupts enabled. Entries queued by a callback that are already due
// at now fire in the same pass.
func (d *Driver) drain(now uint64) {
	for {
		state := d.cs.enter()
		action, h, ok := d.queue.popDue(now)
		if !ok {
			d.rearm()
			d.cs.exit(state)
			return
		}
		d.trace.record(EvtFire, h, now, uint64(action.Kind))
		d.cs.exit(state)

		action.fire(h)
	}
}

// rearm programs the hardware alarm for the queue head. Must be called
// inside the critical section.
func (d *Driver) rearm() {
	switch d.sched.arm(&d.queue, &d.clock) {
	case armCompare:
		d.trace.record(EvtArm, Handle(d.queue.head), d.clock.last, uint64(d.sched.compare))
	case armDisabled, armDeferred:
		if d.trace.lastType() != EvtDisarm {
			d.trace.record(EvtDisarm, 0, d.clock.last, 0)
		}
	}
}
