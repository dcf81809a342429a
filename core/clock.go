package core

// Counter is the free-running hardware timer the clock is built on.
// Count returns the raw counter value (CounterBits wide). SetCompare and
// EnableCompare drive the compare-match unit; coarse mode never calls them.
type Counter interface {
	Count() uint32
	SetCompare(value uint32)
	EnableCompare(enabled bool)
}

// Resetter is implemented by counters that can be zeroed at start
type Resetter interface {
	Reset()
}

// tickClock extends the narrow counter into a 64-bit tick count.
// Must be used inside the critical section.
type tickClock struct {
	hw        Counter
	mode      Mode
	span      uint64
	divider   uint32
	mask      uint32
	threshold uint32

	elapsed uint64 // ticks accumulated by overflow interrupts
	last    uint64 // highest value returned by now
}

func (c *tickClock) init(cfg *Config, hw Counter) {
	*c = tickClock{
		hw:        hw,
		mode:      cfg.Mode,
		span:      cfg.Span(),
		divider:   cfg.Divider,
		mask:      uint32(cfg.counterRange() - 1),
		threshold: cfg.WrapThreshold,
	}
}

// read returns the current tick count and the raw counter value it was
// derived from (0 in coarse mode)
func (c *tickClock) read() (uint64, uint32) {
	if c.mode == ModeCoarse {
		return c.elapsed, 0
	}

	raw := c.hw.Count() & c.mask
	now := c.elapsed + uint64(raw/c.divider)
	if raw <= c.threshold && now < c.last {
		// The counter wrapped but the overflow interrupt has not run yet
		now += c.span
	}
	if now < c.last {
		// Overflow serviced too late to recognise; never step backwards
		now = c.last
	}
	c.last = now
	return now, raw
}

func (c *tickClock) now() uint64 {
	now, _ := c.read()
	return now
}

// overflow accounts for one full counter wrap and returns the new accumulator
func (c *tickClock) overflow() uint64 {
	c.elapsed += c.span
	if c.last < c.elapsed {
		c.last = c.elapsed
	}
	return c.elapsed
}
