// Copyright 2025 zkSL Labs
//
// Idempotency Cache - maps request keys to recorded responses for 24
// hours. Bounded capacity with least-recently-used eviction; protected
// by a mutex so handlers may run on any goroutine.

package server

import (
	"container/list"
	"sync"
	"time"
)

// IdempotencyTTL is how long a recorded response stays replayable.
const IdempotencyTTL = 24 * time.Hour

// CachedResponse is the replayable outcome of a completed request.
type CachedResponse struct {
	Status    int
	Body      []byte
	CreatedAt time.Time
}

type idempEntry struct {
	key      string
	response CachedResponse
}

// IdempotencyCache is an in-memory TTL + LRU cache.
type IdempotencyCache struct {
	mu         sync.Mutex
	maxEntries int
	ll         *list.List
	entries    map[string]*list.Element
	now        func() time.Time
}

// NewIdempotencyCache creates a cache holding at most maxEntries keys.
func NewIdempotencyCache(maxEntries int) *IdempotencyCache {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &IdempotencyCache{
		maxEntries: maxEntries,
		ll:         list.New(),
		entries:    make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Get returns the recorded response for key, if present and fresh.
func (c *IdempotencyCache) Get(key string) (CachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return CachedResponse{}, false
	}
	entry := el.Value.(*idempEntry)
	if c.now().Sub(entry.response.CreatedAt) > IdempotencyTTL {
		c.ll.Remove(el)
		delete(c.entries, key)
		return CachedResponse{}, false
	}
	c.ll.MoveToFront(el)
	return entry.response, true
}

// Put records the response for key, evicting the least-recently-used
// entry when at capacity.
func (c *IdempotencyCache) Put(key string, status int, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*idempEntry).response = CachedResponse{Status: status, Body: body, CreatedAt: c.now()}
		c.ll.MoveToFront(el)
		return
	}

	for c.ll.Len() >= c.maxEntries {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.entries, oldest.Value.(*idempEntry).key)
	}

	el := c.ll.PushFront(&idempEntry{
		key:      key,
		response: CachedResponse{Status: status, Body: body, CreatedAt: c.now()},
	})
	c.entries[key] = el
}

// Len returns the current entry count.
func (c *IdempotencyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
