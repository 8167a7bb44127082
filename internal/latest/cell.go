// Package latest implements a single-value mailbox: a publisher overwrites the
// held value and readers observe the newest one together with its version.
//
// There is no queue. A value that was never read before the next Publish is
// lost and counted as overwritten.
package latest

import (
	"sync"
	"sync/atomic"
)

// Cell holds the most recently published value.
//
// The value and its version are always read and written together under one
// lock, so a reader never sees a version paired with a different value.
type Cell[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	read    uint64 // version of the last Take

	overwritten atomic.Uint64
}

// Publish replaces the held value and returns its version (first version is 1).
//
// Non-blocking. Safe to call from any goroutine.
func (c *Cell[T]) Publish(v T) uint64 {
	c.mu.Lock()
	if c.version > c.read {
		c.overwritten.Add(1)
	}
	c.version++
	c.value = v
	version := c.version
	c.mu.Unlock()
	return version
}

// Load returns the held value and its version. Version 0 means nothing was
// published yet.
func (c *Cell[T]) Load() (T, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.version
}

// Take returns the held value if it is newer than seen. Unlike Load it also
// marks the version as consumed for the overwrite counter.
func (c *Cell[T]) Take(seen uint64) (T, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version == 0 || c.version == seen {
		var zero T
		return zero, c.version, false
	}
	if c.version > c.read {
		c.read = c.version
	}
	return c.value, c.version, true
}

// Version returns the current version without copying the value.
func (c *Cell[T]) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Overwritten counts values replaced before anyone took them.
func (c *Cell[T]) Overwritten() uint64 {
	return c.overwritten.Load()
}

// Reset drops the held value. Versions keep increasing across resets so a
// reader holding an old version never mistakes new data for seen data.
func (c *Cell[T]) Reset() {
	c.mu.Lock()
	var zero T
	c.value = zero
	c.read = c.version
	c.mu.Unlock()
}
