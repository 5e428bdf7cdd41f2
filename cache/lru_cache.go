// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const defaultLRUSize = 1024

// LRUCache caches values that never go stale, evicting the least recently
// used entry at capacity. Concurrent misses for the same key share one
// fetch.
type LRUCache[K comparable, V any] struct {
	cache *lru.Cache[K, V]
	group singleflight.Group
}

func NewLRUCache[K comparable, V any](size int) *LRUCache[K, V] {
	if size <= 0 {
		size = defaultLRUSize
	}
	// lru.New fails only on a non-positive size, which is clamped above.
	c, _ := lru.New[K, V](size)
	return &LRUCache[K, V]{cache: c}
}

// Get returns the cached value for key, fetching and caching it on a
// miss. A fetch error is returned to every waiter and nothing is cached.
func (c *LRUCache[K, V]) Get(key K, fetch func(K) (V, error)) (V, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(keyString(key), func() (interface{}, error) {
		if v, ok := c.cache.Get(key); ok {
			return v, nil
		}
		value, err := fetch(key)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Len returns the number of cached entries
func (c *LRUCache[K, V]) Len() int {
	return c.cache.Len()
}
