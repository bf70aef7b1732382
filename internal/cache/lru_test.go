package cache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/sawtfeel/livesync/internal/cache"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.NewLRU[string](2, 0, clockwork.NewFakeClock())

	c.Set("a", "1")
	c.Set("b", "2")
	_, ok := c.Get("a") // refresh a, b is now LRU
	assert.True(t, ok)

	evicted := c.Set("c", "3")
	assert.True(t, evicted)

	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("b"))
	assert.True(t, c.Has("c"))
	assert.Equal(t, 2, c.Len())
}

func TestLRU_SetRefreshesRecency(t *testing.T) {
	c := cache.NewLRU[int](2, 0, clockwork.NewFakeClock())

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10) // overwrite refreshes, b becomes LRU
	c.Set("c", 3)

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, got)
	assert.False(t, c.Has("b"))
}

func TestLRU_CapacityNeverExceeded(t *testing.T) {
	c := cache.NewLRU[int](3, 0, clockwork.NewFakeClock())
	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
		assert.LessOrEqual(t, c.Len(), 3)
	}
}

func TestLRU_TTLExpiryOnAccess(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := cache.NewLRU[string](10, 100*time.Millisecond, clock)

	c.Set("a", "1")
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", got)

	clock.Advance(150 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok, "expired entry must read as a miss")
	assert.False(t, c.Has("a"))
}

func TestLRU_PerEntryTTLOverridesDefault(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := cache.NewLRU[string](10, time.Hour, clock)

	c.SetTTL("short", "x", 50*time.Millisecond)
	c.Set("long", "y")

	clock.Advance(100 * time.Millisecond)
	assert.False(t, c.Has("short"))
	assert.True(t, c.Has("long"))
}

func TestLRU_DeleteAndClear(t *testing.T) {
	c := cache.NewLRU[int](4, 0, clockwork.NewFakeClock())
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	assert.False(t, c.Has("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has("b"))
}
