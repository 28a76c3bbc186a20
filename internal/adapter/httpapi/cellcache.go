package httpapi

import (
	"fmt"
	"sync"
	"time"
)

// cellCache is a thread-safe LRU over marshaled cell payloads, saving the
// re-encode on hot cells between publishes. Keys carry the snapshot's
// BuiltAt, so a publish implicitly invalidates the previous generation;
// stale entries age out through normal eviction. Zero maxEntries disables
// caching.
type cellCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*cellEntry
	head       *cellEntry // most recently used
	tail       *cellEntry // least recently used
}

type cellEntry struct {
	key     string
	payload []byte
	prev    *cellEntry
	next    *cellEntry
}

func newCellCache(maxEntries int) *cellCache {
	return &cellCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*cellEntry),
	}
}

func cacheKey(source string, builtAt time.Time, cellKey string) string {
	return fmt.Sprintf("%s|%d|%s", source, builtAt.UnixNano(), cellKey)
}

func (c *cellCache) get(source string, builtAt time.Time, cellKey string) ([]byte, bool) {
	if c.maxEntries <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(source, builtAt, cellKey)]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.payload, true
}

func (c *cellCache) put(source string, builtAt time.Time, cellKey string, payload []byte) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(source, builtAt, cellKey)
	if e, ok := c.entries[key]; ok {
		e.payload = payload
		c.moveToFront(e)
		return
	}

	e := &cellEntry{key: key, payload: payload}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *cellCache) moveToFront(e *cellEntry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *cellCache) addToFront(e *cellEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *cellCache) remove(e *cellEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *cellCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
