// Package cache implements the bounded in-memory stores protecting the
// sync core against unbounded accumulation under continuous streaming.
//
// Four eviction policies share the same basic contract (capacity fixed at
// construction, Len() never exceeds it, eviction never panics): an
// access-ordered LRU with lazy per-entry TTL, a frequency-based LFU, a
// fixed-length FIFO ring, and a float64-keyed time-window store with
// nearest-within-tolerance lookup. Service composes one instance of each
// under namespaced operations, because frames, translations, emotion
// samples and raw socket frames each want different capacity/TTL
// trade-offs.
package cache
