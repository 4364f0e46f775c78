package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_AddGet(t *testing.T) {
	c := NewLRU[string, int](4)

	c.Add("a", 1)
	c.Add("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](3)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Add("d", 4)

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	for _, k := range []string{"a", "c", "d"} {
		_, ok := c.Get(k)
		assert.True(t, ok, "%s should still be cached", k)
	}
	assert.Equal(t, 3, c.Len())
}

func TestLRU_UpdateExistingKey(t *testing.T) {
	c := NewLRU[string, string](2)

	c.Add("k", "old")
	c.Add("k", "new")

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_BoundedUnderChurn(t *testing.T) {
	c := NewLRU[string, int](8)
	for i := 0; i < 100; i++ {
		c.Add(fmt.Sprintf("key-%d", i), i)
	}
	assert.Equal(t, 8, c.Len())
}

func TestLRU_DefaultCapacity(t *testing.T) {
	c := NewLRU[int, int](0)
	for i := 0; i < 200; i++ {
		c.Add(i, i)
	}
	assert.Equal(t, 64, c.Len())
}
