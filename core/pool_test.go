package core

import (
	"math/rand"
	"testing"
)

func TestPoolAllocateAll(t *testing.T) {
	var p alarmPool
	p.init(8)

	seen := make(map[Handle]bool)
	for i := 0; i < 8; i++ {
		h, ok := p.allocate()
		if !ok {
			t.Fatalf("Allocation %d failed with free slots remaining", i)
		}
		if seen[h] {
			t.Errorf("Handle %d allocated twice", h)
		}
		seen[h] = true
	}

	if _, ok := p.allocate(); ok {
		t.Error("Expected allocation to fail on a full pool")
	}
	if p.free != 0 {
		t.Errorf("Expected 0 free slots, got %d", p.free)
	}
}

func TestPoolReleaseIsLIFO(t *testing.T) {
	var p alarmPool
	p.init(4)

	a, _ := p.allocate()
	b, _ := p.allocate()
	p.release(a)
	p.release(b)

	h, _ := p.allocate()
	if h != b {
		t.Errorf("Expected last released handle %d, got %d", b, h)
	}
	h, _ = p.allocate()
	if h != a {
		t.Errorf("Expected handle %d, got %d", a, h)
	}
}

func TestPoolNoAliasing(t *testing.T) {
	var p alarmPool
	p.init(6)
	rng := rand.New(rand.NewSource(1))

	live := make(map[Handle]bool)
	var order []Handle
	for i := 0; i < 5000; i++ {
		if rng.Intn(2) == 0 || len(order) == 0 {
			h, ok := p.allocate()
			if !ok {
				if len(live) != 6 {
					t.Fatalf("Allocation failed with %d live handles", len(live))
				}
				continue
			}
			if live[h] {
				t.Fatalf("Handle %d handed out while still live", h)
			}
			live[h] = true
			order = append(order, h)
			continue
		}
		idx := rng.Intn(len(order))
		h := order[idx]
		order = append(order[:idx], order[idx+1:]...)
		delete(live, h)
		p.release(h)
	}

	if p.free+len(live) != 6 {
		t.Errorf("Expected free+live == 6, got %d+%d", p.free, len(live))
	}
}

func TestPoolAllocateClearsSlot(t *testing.T) {
	var p alarmPool
	p.init(2)

	h, _ := p.allocate()
	p.slots[h].action = CallbackAction(func(any) {}, nil)
	p.slots[h].deadline = 99
	p.release(h)

	h, _ = p.allocate()
	if p.slots[h].action.Kind != ActionEmpty {
		t.Errorf("Expected empty action on reallocated slot, got kind %d", p.slots[h].action.Kind)
	}
	if p.slots[h].where != slotOwned {
		t.Errorf("Expected slot to be owned, got state %d", p.slots[h].where)
	}
}
