package fetch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache()

	_, ok := c.Get("https://a")
	assert.False(t, ok)

	ts := time.Unix(1700000000, 0)
	c.Set("https://a", ts)
	got, ok := c.Get("https://a")
	assert.True(t, ok)
	assert.Equal(t, ts, got)
	assert.Equal(t, 1, c.Len())
}

func TestCacheForget(t *testing.T) {
	c := NewCache()
	c.Set("https://a", time.Unix(1, 0))
	c.Set("https://b", time.Unix(2, 0))

	c.Forget("https://a", "https://missing")
	_, ok := c.Get("https://a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestTxnRollbackRestoresPriorState(t *testing.T) {
	c := NewCache()
	old := time.Unix(100, 0)
	c.Set("https://a", old)

	tx := c.Begin()
	tx.Commit("https://a", time.Unix(200, 0))
	tx.Commit("https://b", time.Unix(300, 0))
	tx.Commit("https://a", time.Unix(400, 0))
	assert.Equal(t, 3, tx.Len())

	tx.Rollback()

	got, ok := c.Get("https://a")
	assert.True(t, ok)
	assert.Equal(t, old, got)
	_, ok = c.Get("https://b")
	assert.False(t, ok)

	// idempotent
	tx.Rollback()
	assert.Equal(t, 1, c.Len())
}

func TestTxnRelease(t *testing.T) {
	c := NewCache()
	tx := c.Begin()
	tx.Commit("https://a", time.Unix(200, 0))
	tx.Release()
	tx.Rollback()

	got, ok := c.Get("https://a")
	assert.True(t, ok)
	assert.Equal(t, time.Unix(200, 0), got)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := c.Begin()
			tx.Commit("https://shared", time.Unix(int64(i), 0))
			c.Get("https://shared")
			tx.Release()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
