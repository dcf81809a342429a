package core

// alarmPool is a fixed array of slots with an intrusive LIFO free list.
// The deadline queue is threaded through the same slots (see queue.go).
type alarmPool struct {
	slots    []slot
	freeHead int16
	free     int
}

// init marks every slot free, lowest index at the head
func (p *alarmPool) init(capacity int) {
	if len(p.slots) != capacity {
		p.slots = make([]slot, capacity)
	}
	p.freeHead = noSlot
	for i := capacity - 1; i >= 0; i-- {
		p.slots[i] = slot{next: p.freeHead, where: slotFree}
		p.freeHead = int16(i)
	}
	p.free = capacity
}

// allocate pops the free-list head. Must be called inside the critical section.
func (p *alarmPool) allocate() (Handle, bool) {
	if p.freeHead == noSlot {
		return 0, false
	}
	i := p.freeHead
	s := &p.slots[i]
	assert(s.where == slotFree, "allocated slot was not on the free list")
	p.freeHead = s.next
	s.next = noSlot
	s.deadline = 0
	s.action = Action{}
	s.where = slotOwned
	p.free--
	return Handle(i), true
}

// release pushes h back on the free list. The caller must already have
// unlinked it from the deadline queue.
func (p *alarmPool) release(h Handle) {
	s := &p.slots[h]
	assert(s.where == slotOwned, "released slot is still linked")
	s.action = Action{}
	s.next = p.freeHead
	s.where = slotFree
	p.freeHead = int16(h)
	p.free++
}

// valid reports whether h addresses a slot
func (p *alarmPool) valid(h Handle) bool {
	return int(h) < len(p.slots)
}
