// Package cache holds the marshaled-response cache and a manager that sweeps
// expired entries on an interval.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// ResponseCache keeps marshaled response bodies keyed by request digest,
// evicting by recency once maxItems is exceeded and by TTL on read. Bodies
// are shared, not copied; callers must treat them as read-only.
type ResponseCache struct {
	mu       sync.Mutex
	maxItems int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List
	bytes    int64
}

type responseEntry struct {
	digest    string
	body      []byte
	expiresAt time.Time
}

// NewResponseCache creates a cache holding at most maxItems bodies for ttl.
func NewResponseCache(maxItems int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		maxItems: maxItems,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached body for a digest, dropping it if the TTL lapsed.
func (c *ResponseCache) Get(digest string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[digest]
	if !ok {
		return nil, false
	}

	ent := elem.Value.(*responseEntry)
	if time.Now().After(ent.expiresAt) {
		c.drop(elem)
		return nil, false
	}

	c.order.MoveToFront(elem)
	return ent.body, true
}

// Set stores a body under a digest, replacing any previous body and evicting
// the least recently used entry when the cache is full.
func (c *ResponseCache) Set(digest string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[digest]; ok {
		ent := elem.Value.(*responseEntry)
		c.bytes += int64(len(body)) - int64(len(ent.body))
		ent.body = body
		ent.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&responseEntry{
		digest:    digest,
		body:      body,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.entries[digest] = elem
	c.bytes += int64(len(body))

	if c.order.Len() > c.maxItems {
		if oldest := c.order.Back(); oldest != nil {
			c.drop(oldest)
		}
	}
}

func (c *ResponseCache) drop(elem *list.Element) {
	ent := elem.Value.(*responseEntry)
	delete(c.entries, ent.digest)
	c.order.Remove(elem)
	c.bytes -= int64(len(ent.body))
}

// CleanExpired removes all expired bodies and reports how many went.
func (c *ResponseCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var expired []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*responseEntry).expiresAt) {
			expired = append(expired, elem)
		}
	}
	for _, elem := range expired {
		c.drop(elem)
	}
	return len(expired)
}

// Len returns the number of cached bodies.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SizeBytes returns the total size of all cached bodies.
func (c *ResponseCache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}
