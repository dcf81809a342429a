package core

// Handle identifies an alarm slot. It is the slot's index and never changes.
type Handle uint8

// Waker is woken when a scheduled deadline passes.
// Implementations must be comparable (usually a pointer) so that repeated
// registrations for the same task can be coalesced.
type Waker interface {
	Wake()
}

// ActionKind tags the Action variant
type ActionKind uint8

const (
	ActionEmpty ActionKind = iota
	ActionCallback
	ActionWake
)

// Action is what happens when a slot's deadline passes
type Action struct {
	Kind     ActionKind
	Callback func(ctx any)
	Ctx      any // opaque, only forwarded to Callback
	Waker    Waker
}

// CallbackAction builds a callback action
func CallbackAction(fn func(ctx any), ctx any) Action {
	return Action{Kind: ActionCallback, Callback: fn, Ctx: ctx}
}

// WakeAction builds a wake action
func WakeAction(w Waker) Action {
	return Action{Kind: ActionWake, Waker: w}
}

// fire runs the action. Firing an empty action means a deadline was set
// before a callback was attached, which is fatal.
func (a Action) fire(h Handle) {
	switch a.Kind {
	case ActionCallback:
		a.Callback(a.Ctx)
	case ActionWake:
		a.Waker.Wake()
	default:
		panic("alarm " + itoa(int(h)) + " fired before setting callback")
	}
}

type slotState uint8

const (
	slotFree slotState = iota
	slotOwned
	slotQueued
)

const noSlot = -1

// slot is one pool entry; next links it into the free list or the deadline queue
type slot struct {
	next     int16
	deadline uint64
	action   Action
	where    slotState
}

// Entry is a snapshot of one queued alarm
type Entry struct {
	Handle   Handle
	Deadline uint64
	Kind     ActionKind
}
