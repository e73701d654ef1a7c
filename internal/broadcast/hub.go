// Package broadcast fans events out to an open set of subscribers.
//
// All deliveries happen on the goroutine running Hub.Run, so every subscriber
// sees events in publish order. A subscriber whose Deliver fails is dropped
// without affecting the others.
package broadcast

import (
	"context"
	"sync"
)

const queueSize = 64

// Subscriber receives events from a Hub. Deliver must not block for long;
// returning an error removes the subscriber.
type Subscriber[T any] interface {
	Deliver(event T) error
}

// Closer is implemented by subscribers that want to be told they were pruned.
type Closer interface {
	Close() error
}

type Hub[T any] struct {
	register   chan Subscriber[T]
	unregister chan Subscriber[T]
	events     chan T
	done       chan struct{}

	snapshotMu sync.RWMutex
	snapshot   func() []T

	countMu sync.RWMutex
	count   int

	onPrune func(Subscriber[T], error)
}

func New[T any]() *Hub[T] {
	return &Hub[T]{
		register:   make(chan Subscriber[T]),
		unregister: make(chan Subscriber[T]),
		events:     make(chan T, queueSize),
		done:       make(chan struct{}),
	}
}

// SetSnapshot installs the function producing the "current state" events a new
// subscriber receives before anything else.
func (h *Hub[T]) SetSnapshot(fn func() []T) {
	h.snapshotMu.Lock()
	h.snapshot = fn
	h.snapshotMu.Unlock()
}

// OnPrune registers a callback invoked (on the hub goroutine) for every
// subscriber removed after a failed delivery. Must be set before Run.
func (h *Hub[T]) OnPrune(fn func(Subscriber[T], error)) {
	h.onPrune = fn
}

// Run delivers events until ctx is cancelled.
func (h *Hub[T]) Run(ctx context.Context) {
	subscribers := make(map[Subscriber[T]]struct{})

	defer func() {
		close(h.done)
		for s := range subscribers {
			closeSubscriber(s)
		}
		h.setCount(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-h.register:
			if _, exists := subscribers[s]; exists {
				continue
			}
			// The snapshot is at least as new as anything already queued, so
			// queued events go to the existing subscribers only.
			state := h.currentState()
			h.drain(subscribers)

			subscribers[s] = struct{}{}
			h.setCount(len(subscribers))

			for _, event := range state {
				if err := s.Deliver(event); err != nil {
					h.prune(subscribers, s, err)
					break
				}
			}

		case s := <-h.unregister:
			if _, exists := subscribers[s]; exists {
				delete(subscribers, s)
				h.setCount(len(subscribers))
			}

		case event := <-h.events:
			h.deliver(subscribers, event)
		}
	}
}

// Subscribe registers s. It is a no-op once the hub has stopped.
func (h *Hub[T]) Subscribe(s Subscriber[T]) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

func (h *Hub[T]) Unsubscribe(s Subscriber[T]) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Publish queues event for delivery. Events published after the hub stopped
// are dropped.
func (h *Hub[T]) Publish(event T) {
	select {
	case h.events <- event:
	case <-h.done:
	}
}

// Count returns the number of registered subscribers.
func (h *Hub[T]) Count() int {
	h.countMu.RLock()
	defer h.countMu.RUnlock()
	return h.count
}

func (h *Hub[T]) currentState() []T {
	h.snapshotMu.RLock()
	fn := h.snapshot
	h.snapshotMu.RUnlock()

	if fn == nil {
		return nil
	}
	return fn()
}

func (h *Hub[T]) deliver(subscribers map[Subscriber[T]]struct{}, event T) {
	for s := range subscribers {
		if err := s.Deliver(event); err != nil {
			h.prune(subscribers, s, err)
		}
	}
}

// drain delivers what is queued right now, bounded so a busy publisher cannot
// hold off a registration.
func (h *Hub[T]) drain(subscribers map[Subscriber[T]]struct{}) {
	for range queueSize {
		select {
		case event := <-h.events:
			h.deliver(subscribers, event)
		default:
			return
		}
	}
}

func (h *Hub[T]) prune(subscribers map[Subscriber[T]]struct{}, s Subscriber[T], err error) {
	delete(subscribers, s)
	h.setCount(len(subscribers))
	closeSubscriber(s)

	if h.onPrune != nil {
		h.onPrune(s, err)
	}
}

func (h *Hub[T]) setCount(n int) {
	h.countMu.Lock()
	h.count = n
	h.countMu.Unlock()
}

func closeSubscriber(s any) {
	if c, ok := s.(Closer); ok {
		_ = c.Close()
	}
}
