package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTL_ExpiresOnRead(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTL[string, int]()
	c.now = func() time.Time { return now }

	c.Set("a", 1, 30*time.Second)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(29 * time.Second)
	_, ok = c.Get("a")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestTTL_Overwrite(t *testing.T) {
	c := NewTTL[string, string]()
	c.Set("k", "old", time.Minute)
	c.Set("k", "new", time.Minute)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestTTL_Missing(t *testing.T) {
	c := NewTTL[string, string]()
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestTTL_SetSweepsExpiredEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTL[string, int]()
	c.now = func() time.Time { return now }

	for i, key := range []string{"a", "b", "c"} {
		c.Set(key, i, 30*time.Second)
	}
	c.Set("long", 9, time.Hour)
	assert.Equal(t, 4, c.Len())

	// Within the sweep interval expired keys stay until read.
	now = now.Add(45 * time.Second)
	c.Set("d", 4, 30*time.Second)
	assert.Equal(t, 5, c.Len())

	now = now.Add(sweepInterval)
	c.Set("e", 5, 30*time.Second)
	assert.Equal(t, 2, c.Len())

	v, ok := c.Get("long")
	assert.True(t, ok)
	assert.Equal(t, 9, v)
}
