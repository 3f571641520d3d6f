// Package hub holds the event history and the set of live subscribers.
// Every recorded event is appended to a bounded history and pushed to all
// open subscriptions; a subscription starts with a snapshot of the history.
package hub

import (
	"log/slog"
	"sync"

	"github.com/zsprackett/claude-viz/internal/events"
)

const (
	// DefaultCapacity is the number of events kept in history.
	DefaultCapacity = 100
	// DefaultQueueSize is the per-subscriber outbound queue length.
	DefaultQueueSize = 256
)

type Option func(*Hub)

// WithQueueSize sets the per-subscriber queue length. A subscriber whose
// queue is full when an event is recorded is dropped.
func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// Hub is the broadcast core. The history and the subscriber set are guarded
// by one mutex, so Record, Snapshot and Subscribe are mutually exclusive.
type Hub struct {
	mu        sync.Mutex
	history   *ring
	subs      []*Subscription // registration order
	queueSize int
	logger    *slog.Logger
}

// New returns a Hub keeping the last capacity events. capacity <= 0 uses
// DefaultCapacity.
func New(capacity int, opts ...Option) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	h := &Hub{
		history:   newRing(capacity),
		queueSize: DefaultQueueSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Record appends e to the history, evicting the oldest event when full, and
// pushes it to every open subscription in registration order.
func (h *Hub) Record(e events.Event) {
	msg := events.EventMessage(e)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.history.add(e)
	for _, s := range append([]*Subscription(nil), h.subs...) {
		select {
		case s.ch <- msg:
		default:
			h.logger.Warn("dropping slow subscriber", "queue", h.queueSize)
			h.removeLocked(s)
		}
	}
}

// Snapshot returns the history, oldest first. The result is never nil.
func (h *Hub) Snapshot() []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history.list()
}

// Len returns the number of events in history.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history.count
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Subscribe registers a new subscription. Its first message is a history
// frame holding the snapshot at join time; every later Record produces
// exactly one event frame, in call order, until the subscription closes.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{hub: h, ch: make(chan events.Message, h.queueSize+1)}

	h.mu.Lock()
	defer h.mu.Unlock()
	s.ch <- events.HistoryMessage(h.history.list())
	h.subs = append(h.subs, s)
	return s
}

func (h *Hub) removeLocked(s *Subscription) {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	for i, cur := range h.subs {
		if cur == s {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			break
		}
	}
}

// Subscription is one live subscriber. Messages arrive on C; C is closed
// when the subscription is closed, either by Close or because the
// subscriber fell too far behind.
type Subscription struct {
	hub    *Hub
	ch     chan events.Message
	closed bool // guarded by hub.mu
}

// C returns the message stream.
func (s *Subscription) C() <-chan events.Message {
	return s.ch
}

// Close removes the subscription from the hub. It is safe to call more
// than once and after the hub has already dropped it.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.removeLocked(s)
}
