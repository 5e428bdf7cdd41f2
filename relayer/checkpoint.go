// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relayer

import (
	"container/heap"
	"fmt"
	"strconv"
	"sync"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/luxfi/ids"
)

var checkpointPrefix = []byte("relayer/checkpoint/")

// checkpointStore tracks how far delivery has progressed through a
// chain's send sequence. Deliveries resolve out of order, so resolved
// ids are staged on a heap and the committed count only advances over a
// contiguous prefix; a message that could not be delivered holds the
// checkpoint back until it resolves.
type checkpointStore struct {
	db      dbm.DB
	chainID ids.ID

	mu        sync.Mutex
	committed uint64
	pending   uint64Heap
	dirty     bool
}

func newCheckpointStore(db dbm.DB, chainID ids.ID) (*checkpointStore, error) {
	c := &checkpointStore{db: db, chainID: chainID}
	raw, err := db.Get(checkpointKey(chainID))
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if len(raw) > 0 {
		committed, err := strconv.ParseUint(string(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
		}
		c.committed = committed
	}
	return c, nil
}

func checkpointKey(chainID ids.ID) []byte {
	return append(append([]byte{}, checkpointPrefix...), chainID[:]...)
}

// stage records that the message with the given sequence id resolved.
// The committed count advances while the resolved ids form a contiguous
// prefix of the send sequence.
func (c *checkpointStore) stage(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The committed count is one past the highest contiguous id.
	seq := id + 1
	if seq <= c.committed {
		return
	}
	heap.Push(&c.pending, seq)

	for c.pending.Len() > 0 {
		next := c.pending[0]
		if next <= c.committed {
			// duplicate staging of an already committed id
			heap.Pop(&c.pending)
			continue
		}
		if next != c.committed+1 {
			break
		}
		heap.Pop(&c.pending)
		c.committed = next
		c.dirty = true
	}
}

// flush persists the committed count if it advanced since the last write
func (c *checkpointStore) flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	value := []byte(strconv.FormatUint(c.committed, 10))
	if err := c.db.Set(checkpointKey(c.chainID), value); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	c.dirty = false
	return nil
}

func (c *checkpointStore) checkpoint() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

type uint64Heap []uint64

func (h uint64Heap) Len() int           { return len(h) }
func (h uint64Heap) Less(i, j int) bool { return h[i] < h[j] }
func (h uint64Heap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *uint64Heap) Push(x any) {
	*h = append(*h, x.(uint64))
}

func (h *uint64Heap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
