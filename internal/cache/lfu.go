package cache

import (
	"container/list"
	"sync"
)

// LFU is a capacity-bounded cache that evicts the key with the lowest
// access count. Ties break toward the earliest-inserted key. Counters are
// per-key and reset on eviction; a re-inserted key starts over at 1.
type LFU[V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // insertion order, front = oldest (tie-break)
	items    map[string]*list.Element
}

type lfuEntry[V any] struct {
	key   string
	value V
	count int
}

// NewLFU creates an LFU with the given capacity (at least 1).
func NewLFU[V any](capacity int) *LFU[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LFU[V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Set stores value under key, counting as one access. Reports whether a
// victim was evicted to make room.
func (c *LFU[V]) Set(key string, value V) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*lfuEntry[V])
		entry.value = value
		entry.count++
		return false
	}

	if len(c.items) >= c.capacity {
		c.evictColdest()
		evicted = true
	}

	c.items[key] = c.order.PushBack(&lfuEntry[V]{key: key, value: value, count: 1})
	return evicted
}

// Get returns the value for key, incrementing its access count.
func (c *LFU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	entry := elem.Value.(*lfuEntry[V])
	entry.count++
	return entry.value, true
}

// Has reports presence without touching the access count.
func (c *LFU[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Delete removes key if present.
func (c *LFU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.Remove(elem)
		delete(c.items, key)
	}
}

// Clear removes all entries.
func (c *LFU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// Len returns the number of stored entries.
func (c *LFU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// evictColdest removes the entry with the lowest access count, preferring
// the earliest-inserted on ties. Caller holds the lock.
func (c *LFU[V]) evictColdest() {
	var victim *list.Element
	minCount := 0
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*lfuEntry[V])
		if victim == nil || entry.count < minCount {
			victim = elem
			minCount = entry.count
		}
	}
	if victim != nil {
		entry := victim.Value.(*lfuEntry[V])
		c.order.Remove(victim)
		delete(c.items, entry.key)
	}
}
