package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](10, time.Minute)

	c.Set("a", 1)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestCache_GetMissing(t *testing.T) {
	c := New[string, int](10, time.Minute)

	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, int](10, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", 1)

	// Still valid just before the deadline.
	c.now = func() time.Time { return now.Add(time.Minute - time.Second) }
	_, ok := c.Get("a")
	assert.True(t, ok)

	// Absent once the TTL has elapsed, and the entry is purged.
	c.now = func() time.Time { return now.Add(time.Minute) }
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_CustomTTL(t *testing.T) {
	c := New[string, int](10, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.SetTTL("short", 1, time.Second)

	c.now = func() time.Time { return now.Add(2 * time.Second) }
	_, ok := c.Get("short")
	assert.False(t, ok)
}

func TestCache_EvictsOldestInserted(t *testing.T) {
	c := New[string, int](3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Set("d", 4)

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "first-inserted key should be evicted")
	for _, k := range []string{"b", "c", "d"} {
		_, ok := c.Get(k)
		assert.True(t, ok, "key %s should survive", k)
	}
}

func TestCache_ReinsertMovesToBack(t *testing.T) {
	c := New[string, int](3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Set("a", 10) // moves "a" to the back of the eviction order
	c.Set("d", 4)

	_, ok := c.Get("b")
	assert.False(t, ok, "b is now the oldest and should be evicted")
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, got)
}

func TestCache_Delete(t *testing.T) {
	c := New[string, int](10, time.Minute)

	c.Set("a", 1)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	// Deleting an absent key is a no-op.
	c.Delete("a")
}

func TestCache_BoundHolds(t *testing.T) {
	c := New[string, int](5, time.Minute)

	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	assert.Equal(t, 5, c.Len())
}
