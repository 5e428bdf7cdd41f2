// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTLCacheGet(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Minute)
	fetchCount := 0
	fetch := func(string) (int, error) {
		fetchCount++
		return 42, nil
	}

	val, err := cache.Get("key", fetch)
	require.NoError(err)
	require.Equal(42, val)
	require.Equal(1, fetchCount)

	// a hit does not refetch
	val, err = cache.Get("key", fetch)
	require.NoError(err)
	require.Equal(42, val)
	require.Equal(1, fetchCount)

	// distinct keys fetch independently
	_, err = cache.Get("other", fetch)
	require.NoError(err)
	require.Equal(2, fetchCount)
	require.Equal(2, cache.Len())
}

func TestTTLCacheExpiry(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](50 * time.Millisecond)
	fetchCount := 0
	fetch := func(string) (int, error) {
		fetchCount++
		return fetchCount, nil
	}

	val, err := cache.Get("key", fetch)
	require.NoError(err)
	require.Equal(1, val)

	time.Sleep(100 * time.Millisecond)

	// the entry expired, so the fetch runs again
	val, err = cache.Get("key", fetch)
	require.NoError(err)
	require.Equal(2, val)
}

func TestTTLCacheFetchError(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Minute)
	fetchErr := errors.New("unavailable")
	fetchCount := 0

	_, err := cache.Get("key", func(string) (int, error) {
		fetchCount++
		return 0, fetchErr
	})
	require.ErrorIs(err, fetchErr)
	require.Zero(cache.Len())

	// errors are not cached; the next get retries
	val, err := cache.Get("key", func(string) (int, error) {
		fetchCount++
		return 7, nil
	})
	require.NoError(err)
	require.Equal(7, val)
	require.Equal(2, fetchCount)
}

func TestTTLCacheConcurrentGets(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Minute)

	var (
		mu         sync.Mutex
		fetchCount int
		release    = make(chan struct{})
	)
	fetch := func(string) (int, error) {
		mu.Lock()
		fetchCount++
		mu.Unlock()
		<-release
		return 42, nil
	}

	var (
		started sync.WaitGroup
		wg      sync.WaitGroup
	)
	results := make([]int, 8)
	for i := range results {
		started.Add(1)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			val, err := cache.Get("key", fetch)
			require.NoError(err)
			results[i] = val
		}(i)
	}

	// let the in-flight fetch finish once all getters queued behind it
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, val := range results {
		require.Equal(42, val)
	}

	// concurrent misses for one key shared a single fetch
	mu.Lock()
	require.Equal(1, fetchCount)
	mu.Unlock()
}
