package model

import "sync"

// Cell is an independently settable value with a revision counter.
// Concurrent writers are last-writer-wins.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T
	rev   uint64
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and bumps the revision.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	c.rev++
	c.mu.Unlock()
}

// Revision counts the writes so far.
func (c *Cell[T]) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rev
}
