//go:build !tinygo

package core

import "sync"

// criticalState is a placeholder for interrupt state on regular Go
type criticalState uintptr

// criticalSection excludes concurrent access to the driver state.
// On regular Go a mutex stands in for interrupt masking.
type criticalSection struct {
	mu sync.Mutex
}

func (c *criticalSection) enter() criticalState {
	c.mu.Lock()
	return 0
}

func (c *criticalSection) exit(criticalState) {
	c.mu.Unlock()
}
