// Package eventbus provides the in-process fan-out used to stream
// simulation step and summary events to live observers without ever
// blocking the stepping loop.
package eventbus

import "sync"

// defaultBuffer is the per-subscriber channel depth. A subscriber that
// falls further behind than this misses events rather than stalling
// the publisher.
const defaultBuffer = 8

// Bus fans events of type T out to any number of subscribers.
// Publishing never blocks; a subscriber with a full buffer drops the
// event. The zero value is not usable, call New.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   []chan T
	buffer int
	closed bool
}

// New returns a Bus with the default subscriber buffer.
func New[T any]() *Bus[T] { return &Bus[T]{buffer: defaultBuffer} }

// NewBuffered returns a Bus whose subscriber channels hold up to n
// events. n below one falls back to the default.
func NewBuffered[T any](n int) *Bus[T] {
	if n < 1 {
		n = defaultBuffer
	}
	return &Bus[T]{buffer: n}
}

// Publish delivers e to every subscriber that has buffer space left.
// It is a no-op on a closed bus.
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its receive channel.
// Subscribing to a closed bus yields an already-closed channel.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe detaches sub and closes it. Unknown channels and
// already-closed buses are ignored.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close shuts the bus down and closes every subscriber channel.
// Subsequent publishes are dropped.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
