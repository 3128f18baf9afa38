// Package slot implements the single-cell mailbox described in
// spec.md §3/§4.4: at most one current value, overwritten on publish,
// with update and close fan-out to subscribers. It is a mailbox, not
// a queue — a fast producer and a slow consumer never pile up
// backlog, only the latest value is ever seen.
package slot

import "sync"

// Slot holds at most one current value of type T plus its
// subscribers. The zero value is not usable; use New.
type Slot[T any] struct {
	mu     sync.Mutex
	value  T
	filled bool
	closed bool

	updateSubs []chan T
	closeSubs  []chan struct{}
}

// New returns an empty, open slot.
func New[T any]() *Slot[T] {
	return &Slot[T]{}
}

// Publish overwrites the cell and fires update on every current
// update subscriber. A buffer published to a slot is never mutated by
// the slot itself (spec.md §3 invariants); callers must treat it as
// immutable once published.
func (s *Slot[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.value = v
	s.filled = true
	for _, ch := range s.updateSubs {
		// Drop an update the subscriber has not received yet, so the
		// pending value is always the latest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Peek returns the current value and whether the cell has ever been
// filled. It does not block and does not consume the value — the next
// Peek sees the same value until the next Publish.
func (s *Slot[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.filled
}

// Subscribe registers a channel that receives every subsequent
// published value. The returned function unsubscribes it. The channel
// holds at most one pending value: a publish replaces an update the
// subscriber has not received yet with the newer value, consistent
// with "mailbox, not queue" semantics.
func (s *Slot[T]) Subscribe() (ch <-chan T, unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := make(chan T, 1)
	s.updateSubs = append(s.updateSubs, c)

	return c, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.updateSubs {
			if sub == c {
				s.updateSubs = append(s.updateSubs[:i], s.updateSubs[i+1:]...)
				break
			}
		}
	}
}

// OnClose registers a channel that is closed exactly once, when the
// slot is closed.
func (s *Slot[T]) OnClose() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := make(chan struct{})
	if s.closed {
		close(c)
		return c
	}
	s.closeSubs = append(s.closeSubs, c)
	return c
}

// Close destroys the slot, firing close on every close subscriber.
// Close is idempotent; only the first call has any effect.
func (s *Slot[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.closeSubs {
		close(ch)
	}
	s.closeSubs = nil
	s.updateSubs = nil
}

// Closed reports whether the slot has been closed.
func (s *Slot[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
