//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
)

// The RP2040 timer is a 64-bit microsecond counter with four alarms that
// match on the low word. The runtime sleeps on alarm 0, so the driver takes
// alarm 2 as its compare unit and alarm 3, parked at zero, as the overflow
// interrupt of the 32-bit low word.
const (
	compareAlarm  = 2
	overflowAlarm = 3
)

// timerCounter implements core.Counter over the low word of the timer
type timerCounter struct{}

// Count reads the raw low word. TIMERAWL does not latch the high word.
func (timerCounter) Count() uint32 {
	return rp.TIMER.TIMERAWL.Get()
}

// SetCompare writes the alarm target, which also arms it
func (timerCounter) SetCompare(value uint32) {
	rp.TIMER.ALARM2.Set(value)
}

func (timerCounter) EnableCompare(enabled bool) {
	if enabled {
		rp.TIMER.INTE.SetBits(1 << compareAlarm)
		return
	}
	rp.TIMER.INTE.ClearBits(1 << compareAlarm)
	rp.TIMER.ARMED.Set(1 << compareAlarm)
	rp.TIMER.INTR.Set(1 << compareAlarm)
}

// startTimerInterrupts routes alarm 2 to OnCompareMatch and alarm 3 to
// OnOverflow. Must be called after the driver is created.
func startTimerInterrupts() {
	rp.TIMER.ALARM3.Set(0)
	rp.TIMER.INTE.SetBits(1 << overflowAlarm)

	compare := interrupt.New(rp.IRQ_TIMER_IRQ_2, func(interrupt.Interrupt) {
		rp.TIMER.INTR.Set(1 << compareAlarm)
		driver.OnCompareMatch()
	})
	overflow := interrupt.New(rp.IRQ_TIMER_IRQ_3, func(interrupt.Interrupt) {
		rp.TIMER.INTR.Set(1 << overflowAlarm)
		// Alarms disarm after matching; park it at zero for the next wrap
		rp.TIMER.ALARM3.Set(0)
		driver.OnOverflow()
	})

	// Same priority so the handlers never nest
	compare.SetPriority(0x80)
	overflow.SetPriority(0x80)
	compare.Enable()
	overflow.Enable()
}
