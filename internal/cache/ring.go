package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RingItem is one ring entry with its insertion timestamp.
type RingItem[V any] struct {
	Value V
	At    time.Time
}

// Ring is a strict FIFO buffer of bounded length. Appending beyond
// capacity silently drops the oldest element. There is no keyed lookup,
// only ordered retrieval with an optional since-timestamp filter.
type Ring[V any] struct {
	mu       sync.Mutex
	capacity int
	clock    clockwork.Clock
	items    []RingItem[V]
}

// NewRing creates a ring buffer with the given capacity (at least 1).
func NewRing[V any](capacity int, clock clockwork.Clock) *Ring[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[V]{
		capacity: capacity,
		clock:    clock,
		items:    make([]RingItem[V], 0, capacity),
	}
}

// Append adds value, timestamped now, and reports whether the oldest
// element was dropped to make room.
func (r *Ring[V]) Append(value V) (dropped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) >= r.capacity {
		copy(r.items, r.items[1:])
		r.items = r.items[:len(r.items)-1]
		dropped = true
	}
	r.items = append(r.items, RingItem[V]{Value: value, At: r.clock.Now()})
	return dropped
}

// Items returns all entries in insertion order.
func (r *Ring[V]) Items() []RingItem[V] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RingItem[V], len(r.items))
	copy(out, r.items)
	return out
}

// Since returns entries inserted strictly after t, in insertion order.
func (r *Ring[V]) Since(t time.Time) []RingItem[V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []RingItem[V]
	for _, item := range r.items {
		if item.At.After(t) {
			out = append(out, item)
		}
	}
	return out
}

// Clear removes all entries.
func (r *Ring[V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = r.items[:0]
}

// Len returns the number of buffered entries.
func (r *Ring[V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
