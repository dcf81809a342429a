// Package sim provides a simulated timer peripheral for running the time
// driver on a host: a free-running N-bit counter with an overflow flag and
// one compare-match unit.
package sim

// Counter simulates a free-running hardware counter. Interrupt flags are
// latched by Step and delivered by Service; Advance does both one count at a
// time, like the real peripheral.
//
// Counter is not safe for concurrent use; drive it from one goroutine.
type Counter struct {
	bits uint8
	mask uint32

	count   uint32
	compare uint32
	total   uint64 // counts since reset

	compareEnabled  bool
	overflowPending bool
	comparePending  bool

	onOverflow func()
	onCompare  func()

	compareWrites int
}

// New creates a counter of the given width (1..32 bits)
func New(bits uint8) *Counter {
	if bits == 0 || bits > 32 {
		panic("sim: counter width out of range")
	}
	return &Counter{
		bits: bits,
		mask: uint32((uint64(1) << bits) - 1),
	}
}

// Attach wires the interrupt vectors. Either handler may be nil.
func (c *Counter) Attach(onOverflow, onCompare func()) {
	c.onOverflow = onOverflow
	c.onCompare = onCompare
}

// Count returns the raw counter value
func (c *Counter) Count() uint32 {
	return c.count
}

// SetCompare programs the compare register
func (c *Counter) SetCompare(value uint32) {
	c.compare = value & c.mask
	c.compareWrites++
}

// EnableCompare enables or disables the compare-match interrupt
func (c *Counter) EnableCompare(enabled bool) {
	c.compareEnabled = enabled
	if !enabled {
		c.comparePending = false
	}
}

// Reset zeroes the counter and clears pending flags
func (c *Counter) Reset() {
	c.count = 0
	c.total = 0
	c.overflowPending = false
	c.comparePending = false
}

// Compare returns the compare register and whether its interrupt is enabled
func (c *Counter) Compare() (uint32, bool) {
	return c.compare, c.compareEnabled
}

// CompareWrites returns how many times the compare register was written
func (c *Counter) CompareWrites() int {
	return c.compareWrites
}

// Total returns the counts elapsed since reset
func (c *Counter) Total() uint64 {
	return c.total
}

// Pending reports the latched interrupt flags
func (c *Counter) Pending() (overflow, compare bool) {
	return c.overflowPending, c.comparePending
}

// Max returns the largest counter value
func (c *Counter) Max() uint32 {
	return c.mask
}

// Step advances the counter by n counts without delivering interrupts, as if
// they were masked
func (c *Counter) Step(n uint64) {
	for ; n > 0; n-- {
		c.count = (c.count + 1) & c.mask
		c.total++
		if c.count == 0 {
			c.overflowPending = true
		}
		if c.compareEnabled && c.count == c.compare {
			c.comparePending = true
		}
	}
}

// Service delivers latched interrupts. Overflow is delivered before compare
// match so the clock accumulator is current when the compare handler runs.
func (c *Counter) Service() {
	for c.overflowPending || c.comparePending {
		if c.overflowPending {
			c.overflowPending = false
			if c.onOverflow != nil {
				c.onOverflow()
			}
			continue
		}
		c.comparePending = false
		if c.onCompare != nil {
			c.onCompare()
		}
	}
}

// Advance runs the counter for n counts, delivering interrupts as they occur
func (c *Counter) Advance(n uint64) {
	c.Service()
	for ; n > 0; n-- {
		c.Step(1)
		c.Service()
	}
}
