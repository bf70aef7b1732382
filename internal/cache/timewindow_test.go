package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawtfeel/livesync/internal/cache"
)

func TestTimeWindow_ExactLookup(t *testing.T) {
	c := cache.NewTimeWindow[string](5)

	c.Set(1.5, "frame-a")
	got, ok := c.Get(1.5)
	require.True(t, ok)
	assert.Equal(t, "frame-a", got)

	_, ok = c.Get(1.6)
	assert.False(t, ok)
}

func TestTimeWindow_ClosestWithinTolerance(t *testing.T) {
	c := cache.NewTimeWindow[string](5)
	c.Set(1.0, "one")
	c.Set(2.0, "two")
	c.Set(3.0, "three")

	got, key, ok := c.Closest(2.2, 0.5)
	require.True(t, ok)
	assert.Equal(t, "two", got)
	assert.Equal(t, 2.0, key)

	_, _, ok = c.Closest(10.0, 0.5)
	assert.False(t, ok, "nothing within tolerance")

	// Distance exactly at tolerance is a match.
	got, _, ok = c.Closest(3.5, 0.5)
	require.True(t, ok)
	assert.Equal(t, "three", got)
}

func TestTimeWindow_ClosestTieBreaksFirstFound(t *testing.T) {
	c := cache.NewTimeWindow[string](5)
	c.Set(1.0, "left")
	c.Set(3.0, "right")

	// 2.0 is equidistant; the earlier-inserted key wins.
	got, key, ok := c.Closest(2.0, 1.5)
	require.True(t, ok)
	assert.Equal(t, "left", got)
	assert.Equal(t, 1.0, key)
}

func TestTimeWindow_EvictsOldestInserted(t *testing.T) {
	c := cache.NewTimeWindow[int](2)

	assert.False(t, c.Set(1.0, 1))
	assert.False(t, c.Set(2.0, 2))
	assert.True(t, c.Set(3.0, 3))

	assert.False(t, c.Has(1.0))
	assert.True(t, c.Has(2.0))
	assert.True(t, c.Has(3.0))
	assert.Equal(t, 2, c.Len())
}

func TestTimeWindow_UpdateInPlaceDoesNotEvict(t *testing.T) {
	c := cache.NewTimeWindow[int](2)
	c.Set(1.0, 1)
	c.Set(2.0, 2)

	assert.False(t, c.Set(1.0, 10))
	got, ok := c.Get(1.0)
	require.True(t, ok)
	assert.Equal(t, 10, got)
	assert.Equal(t, 2, c.Len())
}

func TestTimeWindow_DeleteAndClear(t *testing.T) {
	c := cache.NewTimeWindow[int](3)
	c.Set(1.0, 1)
	c.Set(2.0, 2)

	c.Delete(1.0)
	assert.False(t, c.Has(1.0))
	assert.Equal(t, 1, c.Len())

	// The freed slot is reusable without evicting survivors.
	c.Set(3.0, 3)
	c.Set(4.0, 4)
	assert.True(t, c.Has(2.0))

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
