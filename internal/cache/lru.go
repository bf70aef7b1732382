package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// LRU is a capacity-bounded, access-ordered cache. Every Get and Set moves
// the key to most-recently-used; inserting at capacity evicts the least
// recently used key first. Entries may additionally carry a TTL, checked
// lazily on access; TTL expiry is independent of recency.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration // default per-entry TTL, 0 = no expiry
	clock    clockwork.Clock
	order    *list.List // front = most recently used
	items    map[string]*list.Element
}

type lruEntry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
	ttl        time.Duration
}

// NewLRU creates an LRU with the given capacity and default TTL (0 disables
// expiry). Capacity must be at least 1.
func NewLRU[V any](capacity int, ttl time.Duration, clock clockwork.Clock) *LRU[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Set stores value under key and reports whether another entry was evicted
// to make room.
func (c *LRU[V]) Set(key string, value V) (evicted bool) {
	return c.SetTTL(key, value, c.ttl)
}

// SetTTL stores value with an entry-specific TTL overriding the default.
func (c *LRU[V]) SetTTL(key string, value V, ttl time.Duration) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*lruEntry[V])
		entry.value = value
		entry.insertedAt = c.clock.Now()
		entry.ttl = ttl
		c.order.MoveToFront(elem)
		return false
	}

	if len(c.items) >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.removeElement(oldest)
			evicted = true
		}
	}

	entry := &lruEntry[V]{key: key, value: value, insertedAt: c.clock.Now(), ttl: ttl}
	c.items[key] = c.order.PushFront(entry)
	return evicted
}

// Get returns the value for key, refreshing its recency. Expired entries
// are dropped and reported as misses.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	entry := elem.Value.(*lruEntry[V])
	if c.expired(entry) {
		c.removeElement(elem)
		var zero V
		return zero, false
	}

	c.order.MoveToFront(elem)
	return entry.value, true
}

// Has reports whether key is present and unexpired, without refreshing
// recency.
func (c *LRU[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	if c.expired(elem.Value.(*lruEntry[V])) {
		c.removeElement(elem)
		return false
	}
	return true
}

// Delete removes key if present.
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// Len returns the number of stored entries, expired or not.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[V]) expired(entry *lruEntry[V]) bool {
	return entry.ttl > 0 && c.clock.Now().Sub(entry.insertedAt) > entry.ttl
}

func (c *LRU[V]) removeElement(elem *list.Element) {
	entry := elem.Value.(*lruEntry[V])
	c.order.Remove(elem)
	delete(c.items, entry.key)
}
