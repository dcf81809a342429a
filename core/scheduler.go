package core

// alarmScheduler programs the compare-match unit so the queue head fires on
// time. Deadlines further than one counter span away are left to the
// overflow interrupt.
type alarmScheduler struct {
	hw      Counter
	mode    Mode
	span    uint64
	divider uint32
	mask    uint32
	margin  uint64
	armed   bool
	compare uint32
}

func (s *alarmScheduler) init(cfg *Config, hw Counter) {
	margin := cfg.MinMargin
	if margin == 0 {
		margin = 1
	}
	*s = alarmScheduler{
		hw:      hw,
		mode:    cfg.Mode,
		span:    cfg.Span(),
		divider: cfg.Divider,
		mask:    uint32(cfg.counterRange() - 1),
		margin:  margin,
	}
}

// armResult describes what arm did, for the trace ring
type armResult uint8

const (
	armNone armResult = iota
	armCompare
	armDisabled
	armDeferred
)

// arm re-evaluates the hardware alarm for the queue head. Must be called
// inside the critical section.
func (s *alarmScheduler) arm(q *deadlineQueue, clk *tickClock) armResult {
	if s.mode == ModeCoarse {
		return armNone
	}

	deadline, ok := q.peek()
	if !ok {
		s.disable()
		return armDisabled
	}

	now, raw := clk.read()
	var remaining uint64
	if deadline > now {
		remaining = deadline - now
	}
	if remaining >= s.span {
		// Out of compare range; the overflow handler re-arms when it gets closer
		s.disable()
		return armDeferred
	}
	if remaining < s.margin {
		remaining = s.margin
	}

	s.compare = (raw + uint32(remaining)*s.divider) & s.mask
	s.hw.SetCompare(s.compare)
	if !s.armed {
		s.hw.EnableCompare(true)
		s.armed = true
	}
	return armCompare
}

func (s *alarmScheduler) disable() {
	if s.armed {
		s.hw.EnableCompare(false)
		s.armed = false
	}
}
