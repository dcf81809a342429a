package core

import (
	"errors"
	"fmt"
)

// Mode selects how deadlines are detected
type Mode uint8

const (
	// ModeCoarse polls the queue on counter overflow only (whole-span granularity)
	ModeCoarse Mode = iota
	// ModeFine programs the compare-match register for the next deadline
	ModeFine
)

func (m Mode) String() string {
	switch m {
	case ModeCoarse:
		return "coarse"
	case ModeFine:
		return "fine"
	default:
		return "unknown"
	}
}

var (
	ErrCapacity     = errors.New("alarm capacity out of range")
	ErrCounterBits  = errors.New("counter width out of range")
	ErrDivider      = errors.New("divider must evenly divide the counter range")
	ErrMargin       = errors.New("minimum margin must be below one counter span")
	ErrTickRate     = errors.New("tick rate is not an exact divisor of the clock")
	ErrNilCounter   = errors.New("counter cannot be nil")
	ErrThreshold    = errors.New("wrap threshold must be below the counter range")
	ErrMissingClock = errors.New("clock frequency set without prescaler")
)

// MaxCapacity is the largest pool a uint8 handle can address
const MaxCapacity = 255

// Config describes the timer hardware and pool sizing
type Config struct {
	// Capacity is the number of alarm slots (fixed for the driver lifetime)
	Capacity int

	// CounterBits is the width of the free-running hardware counter (8 or 16 on AVR)
	CounterBits uint8

	// Divider is the number of counter counts per tick
	Divider uint32

	// MinMargin is the minimum distance in ticks used when arming a compare match
	MinMargin uint64

	// WrapThreshold is the raw count at or below which a backwards reading is
	// treated as an unserviced overflow
	WrapThreshold uint32

	// Mode selects coarse (overflow only) or fine (compare-match) scheduling
	Mode Mode

	// Optional clock description, checked when ClockHz is non-zero
	ClockHz   uint64
	Prescaler uint64
	TickHz    uint64

	// Debug receives debug lines when DebugEnabled is set
	Debug        DebugWriter
	DebugEnabled bool
}

// DefaultConfig returns the configuration of an ATmega328P Timer0 at 16MHz,
// prescaler 8, two counts per tick (1MHz tick rate)
func DefaultConfig() Config {
	return Config{
		Capacity:      8,
		CounterBits:   8,
		Divider:       2,
		MinMargin:     2,
		WrapThreshold: 16,
		Mode:          ModeFine,
		ClockHz:       16000000,
		Prescaler:     8,
		TickHz:        1000000,
	}
}

// counterRange returns 2^CounterBits
func (c *Config) counterRange() uint64 {
	return uint64(1) << c.CounterBits
}

// Span returns the number of ticks in one full counter wrap
func (c *Config) Span() uint64 {
	return c.counterRange() / uint64(c.Divider)
}

// Validate checks the configuration for internal consistency
func (c *Config) Validate() error {
	if c.Capacity < 1 || c.Capacity > MaxCapacity {
		return fmt.Errorf("%w: %d", ErrCapacity, c.Capacity)
	}
	if c.CounterBits < 1 || c.CounterBits > 32 {
		return fmt.Errorf("%w: %d", ErrCounterBits, c.CounterBits)
	}
	if c.Divider == 0 || c.counterRange()%uint64(c.Divider) != 0 {
		return fmt.Errorf("%w: %d counts into %d", ErrDivider, c.Divider, c.counterRange())
	}
	if c.MinMargin >= c.Span() {
		return fmt.Errorf("%w: margin %d, span %d", ErrMargin, c.MinMargin, c.Span())
	}
	if uint64(c.WrapThreshold) >= c.counterRange() {
		return fmt.Errorf("%w: %d", ErrThreshold, c.WrapThreshold)
	}
	if c.ClockHz != 0 {
		if c.Prescaler == 0 {
			return ErrMissingClock
		}
		clocksPerTick := c.Prescaler * uint64(c.Divider)
		if c.ClockHz%clocksPerTick != 0 || (c.TickHz != 0 && c.ClockHz/clocksPerTick != c.TickHz) {
			return fmt.Errorf("%w: %dHz / (%d*%d) != %dHz", ErrTickRate, c.ClockHz, c.Prescaler, c.Divider, c.TickHz)
		}
	}
	return nil
}

// tickRate returns the configured tick frequency, or 0 if unknown
func (c *Config) tickRate() uint64 {
	if c.TickHz != 0 {
		return c.TickHz
	}
	if c.ClockHz != 0 && c.Prescaler != 0 {
		return c.ClockHz / (c.Prescaler * uint64(c.Divider))
	}
	return 0
}
