package dedupe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheAdmitsOnce(t *testing.T) {
	t.Parallel()

	c := New(0)
	assert.True(t, c.Admit("wamid.1"))
	assert.False(t, c.Admit("wamid.1"))
	assert.True(t, c.Admit("wamid.2"))
	assert.Equal(t, 2, c.Len())
}

func TestCacheEmptyIDIsNotTracked(t *testing.T) {
	t.Parallel()

	c := New(4)
	assert.True(t, c.Admit(""))
	assert.True(t, c.Admit(""))
	assert.Zero(t, c.Len())
}

func TestCacheEvictsOldestHalf(t *testing.T) {
	t.Parallel()

	c := New(DefaultCapacity)
	for i := 0; i < DefaultCapacity; i++ {
		require.True(t, c.Admit(fmt.Sprintf("id-%d", i)))
	}
	require.Equal(t, DefaultCapacity, c.Len())

	require.True(t, c.Admit("id-100"))
	assert.Equal(t, 51, c.Len())
	for i := 0; i < 50; i++ {
		assert.False(t, c.Contains(fmt.Sprintf("id-%d", i)), "id-%d should be evicted", i)
	}
	for i := 50; i <= 100; i++ {
		assert.True(t, c.Contains(fmt.Sprintf("id-%d", i)), "id-%d should remain", i)
	}

	// Evicted ids are admitted again.
	assert.True(t, c.Admit("id-0"))
	assert.False(t, c.Admit("id-75"))
}

func TestCacheConcurrentAdmit(t *testing.T) {
	t.Parallel()

	c := New(1000)
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Admit("same") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted.Load())
}

func TestNilCache(t *testing.T) {
	t.Parallel()

	var c *Cache
	assert.True(t, c.Admit("x"))
	assert.False(t, c.Contains("x"))
	assert.Zero(t, c.Len())
}
