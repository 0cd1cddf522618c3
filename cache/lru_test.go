package cache

import (
	"testing"

	"github.com/hupe1980/meshcache/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_GetSetEvict(t *testing.T) {
	c := NewLRU(30, nil)

	k1 := Key{Archive: 1, Offset: 0}
	k2 := Key{Archive: 1, Offset: 100}
	k3 := Key{Archive: 1, Offset: 200}

	c.Set(k1, make([]byte, 10))
	c.Set(k2, make([]byte, 10))

	// Touch k1 so k2 becomes the eviction candidate.
	_, ok := c.Get(k1)
	require.True(t, ok)

	c.Set(k3, make([]byte, 15))

	_, ok = c.Get(k2)
	assert.False(t, ok, "least recently used chunk must be evicted")
	_, ok = c.Get(k1)
	assert.True(t, ok)
	_, ok = c.Get(k3)
	assert.True(t, ok)
	assert.Equal(t, int64(25), c.Size())

	hits, misses := c.Stats()
	assert.Equal(t, int64(3), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_EdgeCases(t *testing.T) {
	t.Run("LargerThanCapacity", func(t *testing.T) {
		c := NewLRU(50, nil)
		k := Key{Archive: 2, Offset: 1}
		c.Set(k, make([]byte, 60))
		_, ok := c.Get(k)
		assert.False(t, ok)
	})

	t.Run("ControllerRefuses", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 10})
		c := NewLRU(50, rc)

		c.Set(Key{Archive: 2, Offset: 1}, make([]byte, 8))
		c.Set(Key{Archive: 2, Offset: 2}, make([]byte, 8))

		assert.Equal(t, 1, c.Len())
		assert.Equal(t, int64(8), rc.MemoryUsage())
	})

	t.Run("InvalidateReleasesMemory", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
		c := NewLRU(100, rc)

		c.Set(Key{Archive: 1, Offset: 0}, make([]byte, 20))
		c.Set(Key{Archive: 1, Offset: 20}, make([]byte, 20))
		c.Set(Key{Archive: 2, Offset: 0}, make([]byte, 20))

		c.Invalidate(1)
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, int64(20), c.Size())
		assert.Equal(t, int64(20), rc.MemoryUsage())
	})

	t.Run("SetTwiceKeepsSize", func(t *testing.T) {
		c := NewLRU(100, nil)
		k := Key{Archive: 2, Offset: 0}
		c.Set(k, make([]byte, 20))
		c.Set(k, make([]byte, 20))
		assert.Equal(t, int64(20), c.Size())
	})
}

func TestNewArchiveID(t *testing.T) {
	a, b := NewArchiveID(), NewArchiveID()
	assert.NotEqual(t, a, b)
	assert.NotZero(t, a)
}
