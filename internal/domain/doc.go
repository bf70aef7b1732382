// Package domain defines the core domain types for the sync core.
//
// This package contains concept-oriented files (events.go, message.go,
// playback.go) with shared types and the tagged wire-message union. No
// implementation code - just contracts. Prevents circular imports by
// keeping interfaces on the consumer side.
package domain
