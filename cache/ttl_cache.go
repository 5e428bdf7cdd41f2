// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cache provides TTL and LRU caches with single-flight
// population, used to avoid re-signing or re-collecting attestations for
// hot claims.
package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTLCache caches values for a fixed duration. Concurrent misses for the
// same key share one fetch.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	group   singleflight.Group
}

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
	}
}

// Get returns the cached value for key, fetching and caching it on a
// miss or after expiry. A fetch error is returned to every waiter and
// nothing is cached.
func (c *TTLCache[K, V]) Get(key K, fetch func(K) (V, error)) (V, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expires) {
		return e.value, nil
	}

	v, err, _ := c.group.Do(keyString(key), func() (interface{}, error) {
		value, err := fetch(key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry[V]{
			value:   value,
			expires: time.Now().Add(c.ttl),
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Len returns the number of cached entries, counting expired ones not
// yet overwritten
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// keyString allows both fmt.Stringer keys and primitives
func keyString[K comparable](key K) string {
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}
