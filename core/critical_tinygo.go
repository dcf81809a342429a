//go:build tinygo

package core

import "runtime/interrupt"

type criticalState = interrupt.State

// criticalSection masks interrupts for the duration of the section
type criticalSection struct{}

// enter disables interrupts and returns the previous state
func (c *criticalSection) enter() criticalState {
	return interrupt.Disable()
}

// exit restores the interrupt state
func (c *criticalSection) exit(state criticalState) {
	interrupt.Restore(state)
}
