package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resforge/internal/resource"
)

func TestLRUBlockCache(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	c := NewLRUBlockCache(50, rc) // cache limit 50, global limit 100
	ctx := context.Background()

	k1 := Key{Path: "data.M00", Block: 1}
	k2 := Key{Path: "data.M00", Block: 2}
	k3 := Key{Path: "data.M00", Block: 3}

	c.Set(ctx, k1, make([]byte, 20))
	assert.Equal(t, int64(20), c.Size())
	assert.Equal(t, int64(20), rc.MemoryUsage())

	c.Set(ctx, k2, make([]byte, 20))
	assert.Equal(t, int64(40), c.Size())

	// 60 > 50 evicts k1.
	c.Set(ctx, k3, make([]byte, 20))
	assert.Equal(t, int64(40), c.Size())
	assert.Equal(t, int64(40), rc.MemoryUsage())

	_, ok := c.Get(ctx, k1)
	assert.False(t, ok, "k1 should be evicted")
	_, ok = c.Get(ctx, k2)
	assert.True(t, ok)
	_, ok = c.Get(ctx, k3)
	assert.True(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRUBlockCache_GlobalLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 30})
	c := NewLRUBlockCache(100, rc)
	ctx := context.Background()

	c.Set(ctx, Key{Path: "a", Block: 0}, make([]byte, 20))
	c.Set(ctx, Key{Path: "a", Block: 1}, make([]byte, 20))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(20), rc.MemoryUsage())
}

func TestLRUBlockCache_Recency(t *testing.T) {
	c := NewLRUBlockCache(40, nil)
	ctx := context.Background()
	a, b, d := Key{Path: "x", Block: 0}, Key{Path: "x", Block: 1}, Key{Path: "x", Block: 2}

	c.Set(ctx, a, make([]byte, 20))
	c.Set(ctx, b, make([]byte, 20))
	_, _ = c.Get(ctx, a)
	c.Set(ctx, d, make([]byte, 20))

	_, ok := c.Get(ctx, a)
	assert.True(t, ok)
	_, ok = c.Get(ctx, b)
	assert.False(t, ok)
}

func TestLRUBlockCache_Invalidate(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1000})
	c := NewLRUBlockCache(1000, rc)
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		c.Set(ctx, Key{Path: "one", Block: i}, []byte{1, 2, 3})
		c.Set(ctx, Key{Path: "two", Block: i}, []byte{4, 5, 6})
	}
	require.Equal(t, 6, c.Len())

	c.Invalidate("one")
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, int64(9), rc.MemoryUsage())

	got, ok := c.Get(ctx, Key{Path: "two", Block: 2})
	require.True(t, ok)
	assert.Equal(t, []byte{4, 5, 6}, got)
}

func TestLRUBlockCache_Oversized(t *testing.T) {
	c := NewLRUBlockCache(10, nil)
	c.Set(context.Background(), Key{Path: "big"}, make([]byte, 11))
	assert.Equal(t, 0, c.Len())
	require.NoError(t, c.Close())
}
