// Package dedupe remembers recently seen inbound message identifiers so a
// redelivered message is processed at most once.
package dedupe

import "sync"

// DefaultCapacity is the number of identifiers kept before eviction.
const DefaultCapacity = 100

// Cache is a bounded set of message identifiers. When an admission pushes
// it past capacity, the oldest half is evicted in one batch.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    []string
	seen     map[string]struct{}
}

// New returns a cache holding up to capacity identifiers. Non-positive
// values use DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    make([]string, 0, capacity+1),
		seen:     make(map[string]struct{}, capacity+1),
	}
}

// Admit records id and reports whether it had not been seen. Empty ids
// cannot be tracked and are always admitted.
func (c *Cache) Admit(id string) bool {
	if c == nil || id == "" {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[id]; ok {
		return false
	}
	c.seen[id] = struct{}{}
	c.order = append(c.order, id)
	if len(c.order) > c.capacity {
		c.evictOldestHalfLocked()
	}
	return true
}

// Contains reports whether id is currently remembered.
func (c *Cache) Contains(id string) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[id]
	return ok
}

// Len returns the number of remembered identifiers.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

func (c *Cache) evictOldestHalfLocked() {
	half := c.capacity / 2
	if half == 0 {
		half = 1
	}
	for _, id := range c.order[:half] {
		delete(c.seen, id)
	}
	n := copy(c.order, c.order[half:])
	clear(c.order[n:])
	c.order = c.order[:n]
}
