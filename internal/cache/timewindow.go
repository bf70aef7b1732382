package cache

import (
	"math"
	"sync"
)

// TimeWindow is a capacity-bounded store keyed by a continuous value,
// typically a media timestamp in seconds. Besides exact lookup it supports
// nearest-within-tolerance lookup for aligning queries against sparse
// keys. Insertion beyond capacity evicts the oldest-inserted key.
type TimeWindow[V any] struct {
	mu       sync.Mutex
	capacity int
	keys     []float64 // insertion order
	items    map[float64]V
}

// NewTimeWindow creates a time-window store with the given capacity (at
// least 1).
func NewTimeWindow[V any](capacity int) *TimeWindow[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &TimeWindow[V]{
		capacity: capacity,
		keys:     make([]float64, 0, capacity),
		items:    make(map[float64]V),
	}
}

// Set stores value under key, reporting whether the oldest key was evicted
// to make room. Setting an existing key updates it in place.
func (c *TimeWindow[V]) Set(key float64, value V) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		c.items[key] = value
		return false
	}

	if len(c.keys) >= c.capacity {
		oldest := c.keys[0]
		copy(c.keys, c.keys[1:])
		c.keys = c.keys[:len(c.keys)-1]
		delete(c.items, oldest)
		evicted = true
	}

	c.keys = append(c.keys, key)
	c.items[key] = value
	return evicted
}

// Get returns the value stored under exactly key.
func (c *TimeWindow[V]) Get(key float64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.items[key]
	return value, ok
}

// Closest returns the entry whose key has the minimum absolute distance to
// query, provided that distance is within tolerance. Ties break toward the
// first key found in insertion order. The matched key is returned alongside
// the value.
func (c *TimeWindow[V]) Closest(query, tolerance float64) (V, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		best     float64
		bestDist = math.Inf(1)
		found    bool
	)
	for _, key := range c.keys {
		dist := math.Abs(key - query)
		if dist < bestDist {
			best = key
			bestDist = dist
			found = true
		}
	}
	if !found || bestDist > tolerance {
		var zero V
		return zero, 0, false
	}
	return c.items[best], best, true
}

// Has reports whether exactly key is present.
func (c *TimeWindow[V]) Has(key float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Delete removes key if present.
func (c *TimeWindow[V]) Delete(key float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Clear removes all entries.
func (c *TimeWindow[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = c.keys[:0]
	c.items = make(map[float64]V)
}

// Len returns the number of stored entries.
func (c *TimeWindow[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
