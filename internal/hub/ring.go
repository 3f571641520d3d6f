package hub

import "github.com/zsprackett/claude-viz/internal/events"

// ring is a fixed-capacity FIFO of events. When full, the oldest event is
// overwritten. It is not safe for concurrent use; Hub serializes access.
type ring struct {
	items []events.Event
	head  int // index of the oldest element
	count int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{items: make([]events.Event, capacity)}
}

func (r *ring) add(e events.Event) {
	n := len(r.items)
	if r.count == n {
		r.items[r.head] = e
		r.head = (r.head + 1) % n
		return
	}
	r.items[(r.head+r.count)%n] = e
	r.count++
}

// list returns a copy of the buffered events, oldest first. Never nil.
func (r *ring) list() []events.Event {
	out := make([]events.Event, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.items[(r.head+i)%len(r.items)]
	}
	return out
}
