// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUCacheGet(t *testing.T) {
	require := require.New(t)

	cache := NewLRUCache[string, int](10)
	fetchCount := 0
	fetch := func(key string) (int, error) {
		fetchCount++
		return len(key), nil
	}

	v, err := cache.Get("alpha", fetch)
	require.NoError(err)
	require.Equal(5, v)
	require.Equal(1, fetchCount)

	// Hit does not refetch.
	v, err = cache.Get("alpha", fetch)
	require.NoError(err)
	require.Equal(5, v)
	require.Equal(1, fetchCount)

	v, err = cache.Get("beta", fetch)
	require.NoError(err)
	require.Equal(4, v)
	require.Equal(2, fetchCount)
	require.Equal(2, cache.Len())
}

func TestLRUCacheEviction(t *testing.T) {
	require := require.New(t)

	cache := NewLRUCache[string, int](2)
	fetchCount := 0
	fetch := func(key string) (int, error) {
		fetchCount++
		return fetchCount, nil
	}

	_, err := cache.Get("a", fetch)
	require.NoError(err)
	_, err = cache.Get("b", fetch)
	require.NoError(err)

	// "c" evicts "a", the least recently used entry.
	_, err = cache.Get("c", fetch)
	require.NoError(err)
	require.Equal(2, cache.Len())

	_, err = cache.Get("a", fetch)
	require.NoError(err)
	require.Equal(4, fetchCount)

	// "b" was evicted by the refetch of "a".
	_, err = cache.Get("b", fetch)
	require.NoError(err)
	require.Equal(5, fetchCount)
}

func TestLRUCacheFetchError(t *testing.T) {
	require := require.New(t)

	cache := NewLRUCache[string, int](10)
	errFetch := errors.New("fetch failed")
	calls := 0

	_, err := cache.Get("key", func(string) (int, error) {
		calls++
		return 0, errFetch
	})
	require.ErrorIs(err, errFetch)
	require.Zero(cache.Len())

	// Errors are not cached; the next get fetches again.
	v, err := cache.Get("key", func(string) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(err)
	require.Equal(7, v)
	require.Equal(2, calls)
}

func TestLRUCacheDefaultSize(t *testing.T) {
	cache := NewLRUCache[int, string](0)
	for i := 0; i < 5; i++ {
		v, err := cache.Get(i, func(k int) (string, error) {
			return fmt.Sprintf("v%d", k), nil
		})
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("v%d", i), v)
	}
	require.Equal(t, 5, cache.Len())
}
