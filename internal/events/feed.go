// Package events provides the fan-out primitive behind the live preference
// and task streams.
package events

import "sync"

// Feed broadcasts values to subscribers and retains the most recent one, so a
// new subscriber observes the current value immediately. Delivery is
// non-blocking: a slow subscriber has stale pending values replaced by the
// latest rather than stalling the publisher. A Feed never terminates a
// subscriber on error; it only closes channels on Close or unsubscribe.
type Feed[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	nextID int
	latest T
	primed bool
	closed bool
}

func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{
		subs: make(map[int]chan T),
	}
}

// Prime seeds the retained value without notifying existing subscribers.
// It is a no-op once the feed holds a value.
func (f *Feed[T]) Prime(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.primed || f.closed {
		return
	}
	f.latest = v
	f.primed = true
}

// Publish replaces the retained value and delivers it to every subscriber.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.latest = v
	f.primed = true

	for _, ch := range f.subs {
		send(ch, v)
	}
}

// send delivers without blocking. When the subscriber's buffer is full, the
// oldest pending value is dropped to make room for the latest one.
func send[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Latest returns the retained value, if any.
func (f *Feed[T]) Latest() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.primed
}

// Subscribe registers a subscriber channel. The retained value, when present,
// is already buffered on the returned channel. The returned func unsubscribes
// and closes the channel; calling it more than once is safe.
func (f *Feed[T]) Subscribe() (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan T, 8)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	if f.primed {
		ch <- f.latest
	}

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
}

// Close closes all subscriber channels and rejects further publishes.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		close(ch)
		delete(f.subs, id)
	}
}
