package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestCache_Expiry(t *testing.T) {
	clk := &clock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	c := NewCache[int](Config{TTL: time.Minute, Now: clk.now})
	defer c.Stop()

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clk.t = clk.t.Add(30 * time.Second)
	c.Set("b", 2)

	clk.t = clk.t.Add(45 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, 1, c.Cleanup())
	v, ok = c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	c.Delete("b")
	assert.Zero(t, c.Len())
}

func TestCache_NoExpiry(t *testing.T) {
	clk := &clock{t: time.Now()}
	c := NewCache[string](Config{Now: clk.now, CleanupInterval: time.Hour})
	defer c.Stop()

	c.Set("k", "v")
	clk.t = clk.t.Add(24 * time.Hour)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Zero(t, c.Cleanup())

	c.Stop()
	c.Stop()
}
