package core

// deadlineQueue is a singly linked list of pool slots in ascending deadline
// order. Equal deadlines keep insertion order.
//
// All methods must be called inside the critical section.
type deadlineQueue struct {
	pool *alarmPool
	head int16
}

func (q *deadlineQueue) init(p *alarmPool) {
	q.pool = p
	q.head = noSlot
}

// insert links an owned slot before the first entry with a strictly later
// deadline, or at the tail
func (q *deadlineQueue) insert(h Handle, deadline uint64) {
	slots := q.pool.slots
	s := &slots[h]
	assert(s.where == slotOwned, "inserted slot is not owned")
	s.deadline = deadline
	s.where = slotQueued

	link := &q.head
	for *link != noSlot {
		cur := &slots[*link]
		if cur.deadline > deadline {
			break
		}
		link = &cur.next
	}
	s.next = *link
	*link = int16(h)
}

// unlink removes h from the queue and reports whether it was queued
func (q *deadlineQueue) unlink(h Handle) bool {
	slots := q.pool.slots
	if slots[h].where != slotQueued {
		return false
	}
	link := &q.head
	for *link != noSlot {
		if *link == int16(h) {
			*link = slots[h].next
			slots[h].next = noSlot
			slots[h].where = slotOwned
			return true
		}
		link = &slots[*link].next
	}
	assert(false, "queued slot missing from deadline queue")
	return false
}

// reschedule moves h to the position for deadline. h may or may not be
// queued already; it is never linked twice.
func (q *deadlineQueue) reschedule(h Handle, deadline uint64) {
	q.unlink(h)
	q.insert(h, deadline)
}

// popDue detaches the head if it is due at now, releases its slot to the
// pool and returns the action to dispatch
func (q *deadlineQueue) popDue(now uint64) (Action, Handle, bool) {
	if q.head == noSlot {
		return Action{}, 0, false
	}
	h := Handle(q.head)
	s := &q.pool.slots[h]
	if s.deadline > now {
		return Action{}, 0, false
	}
	q.head = s.next
	s.next = noSlot
	s.where = slotOwned
	action := s.action
	q.pool.release(h)
	return action, h, true
}

// peek returns the head deadline
func (q *deadlineQueue) peek() (uint64, bool) {
	if q.head == noSlot {
		return 0, false
	}
	return q.pool.slots[q.head].deadline, true
}

// findWaker returns the queued slot that will wake w
func (q *deadlineQueue) findWaker(w Waker) (Handle, bool) {
	slots := q.pool.slots
	for i := q.head; i != noSlot; i = slots[i].next {
		a := &slots[i].action
		if a.Kind == ActionWake && a.Waker == w {
			return Handle(i), true
		}
	}
	return 0, false
}

// walk appends the queue contents in order to dst
func (q *deadlineQueue) walk(dst []Entry) []Entry {
	slots := q.pool.slots
	var prev uint64
	for i := q.head; i != noSlot; i = slots[i].next {
		s := &slots[i]
		assert(s.deadline >= prev, "deadline queue out of order")
		prev = s.deadline
		dst = append(dst, Entry{Handle: Handle(i), Deadline: s.deadline, Kind: s.action.Kind})
	}
	return dst
}
