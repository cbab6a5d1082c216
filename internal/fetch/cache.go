package fetch

import (
	"sync"
	"time"
)

// Cache remembers, per URL, the modification time of the last list that was
// fetched and merged. It lives for the whole process and is never evicted.
type Cache struct {
	mu     sync.RWMutex
	states map[string]time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{states: make(map[string]time.Time)}
}

// Get returns the cached timestamp for url.
func (c *Cache) Get(url string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.states[url]
	return t, ok
}

// Set stores the timestamp for url.
func (c *Cache) Set(url string, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[url] = t
}

// Forget drops the entries for urls so they are fetched again.
func (c *Cache) Forget(urls ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range urls {
		delete(c.states, u)
	}
}

// Len returns the number of cached URLs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.states)
}

// Begin starts a journal of cache writes that can be undone as a unit.
func (c *Cache) Begin() *Txn {
	return &Txn{cache: c}
}

// Txn journals cache writes so that a source whose update is abandoned can
// restore the entries it touched. A Txn is used by one goroutine at a time.
type Txn struct {
	cache *Cache
	prior []journalEntry
	done  bool
}

type journalEntry struct {
	url     string
	t       time.Time
	existed bool
}

// Commit writes the timestamp for url, remembering the previous value.
func (tx *Txn) Commit(url string, t time.Time) {
	tx.cache.mu.Lock()
	defer tx.cache.mu.Unlock()
	prev, ok := tx.cache.states[url]
	tx.prior = append(tx.prior, journalEntry{url: url, t: prev, existed: ok})
	tx.cache.states[url] = t
}

// Len returns the number of journaled writes.
func (tx *Txn) Len() int {
	return len(tx.prior)
}

// Rollback restores every entry written through tx, newest first.
// It is a no-op after Rollback or Release.
func (tx *Txn) Rollback() {
	if tx.done {
		return
	}
	tx.done = true

	tx.cache.mu.Lock()
	defer tx.cache.mu.Unlock()
	for i := len(tx.prior) - 1; i >= 0; i-- {
		e := tx.prior[i]
		if e.existed {
			tx.cache.states[e.url] = e.t
		} else {
			delete(tx.cache.states, e.url)
		}
	}
	tx.prior = nil
}

// Release keeps the written entries and drops the journal.
func (tx *Txn) Release() {
	tx.done = true
	tx.prior = nil
}
