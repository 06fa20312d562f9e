// Package lazycache holds remote entity lists that are fetched on first use
// and refetched only after an explicit invalidation.
package lazycache

import (
	"context"
	"sync"
)

type State int

const (
	Empty State = iota
	Fresh
	Stale
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// FetchFunc loads the complete list for key (usually a workspace id).
type FetchFunc[T any] func(ctx context.Context, key string) ([]T, error)

// Cache is safe for concurrent use. The lock is held during a refresh so
// concurrent readers of a stale cache cause a single fetch.
type Cache[T any] struct {
	mu    sync.Mutex
	state State
	key   string
	items []T
	fetch FetchFunc[T]
}

func New[T any](fetch FetchFunc[T]) *Cache[T] {
	return &Cache[T]{fetch: fetch}
}

// Get returns the cached list for key, fetching it when the cache is empty,
// stale, or was filled for a different key. Callers must not modify the
// returned slice.
func (c *Cache[T]) Get(ctx context.Context, key string) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Fresh && c.key == key {
		return c.items, nil
	}

	items, err := c.fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	c.items = items
	c.key = key
	c.state = Fresh
	return c.items, nil
}

// Invalidate marks a fresh cache stale. The next Get refetches.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Fresh {
		c.state = Stale
	}
}

func (c *Cache[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
