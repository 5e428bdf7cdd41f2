// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"encoding/binary"
	"fmt"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/luxfi/ids"
)

var (
	nextIDKey      = []byte("bridge/id")
	statusPrefix   = []byte("bridge/status/")
	recalledPrefix = []byte("bridge/recalled/")
)

// store persists the only durable state the bridge owns: the send
// sequence counter, per-hash delivery status and per-hash recall flags.
// An absent status entry reads as StatusNew.
type store struct {
	db dbm.DB
}

func newStore(db dbm.DB) *store {
	return &store{db: db}
}

// nextMessageID returns the current counter value and advances it. The
// advance is persisted before the value is used, so an id handed out is
// never handed out again, even if the surrounding send aborts.
func (s *store) nextMessageID() (uint64, error) {
	raw, err := s.db.Get(nextIDKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read message counter: %w", err)
	}

	var id uint64
	if len(raw) == 8 {
		id = binary.BigEndian.Uint64(raw)
	}

	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, id+1)
	if err := s.db.Set(nextIDKey, next); err != nil {
		return 0, fmt.Errorf("failed to advance message counter: %w", err)
	}
	return id, nil
}

// peekMessageID returns the counter without advancing it
func (s *store) peekMessageID() (uint64, error) {
	raw, err := s.db.Get(nextIDKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read message counter: %w", err)
	}
	if len(raw) != 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(raw), nil
}

func statusKey(msgHash ids.ID) []byte {
	return append(append([]byte{}, statusPrefix...), msgHash[:]...)
}

func recalledKey(msgHash ids.ID) []byte {
	return append(append([]byte{}, recalledPrefix...), msgHash[:]...)
}

func (s *store) status(msgHash ids.ID) (Status, error) {
	raw, err := s.db.Get(statusKey(msgHash))
	if err != nil {
		return StatusNew, fmt.Errorf("failed to read status: %w", err)
	}
	if len(raw) != 1 {
		return StatusNew, nil
	}
	return Status(raw[0]), nil
}

func (s *store) setStatus(msgHash ids.ID, status Status) error {
	if err := s.db.Set(statusKey(msgHash), []byte{byte(status)}); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}

func (s *store) isRecalled(msgHash ids.ID) (bool, error) {
	ok, err := s.db.Has(recalledKey(msgHash))
	if err != nil {
		return false, fmt.Errorf("failed to read recall flag: %w", err)
	}
	return ok, nil
}

// setRecalled sets the monotone recall flag. There is no clear operation.
func (s *store) setRecalled(msgHash ids.ID) error {
	if err := s.db.Set(recalledKey(msgHash), []byte{1}); err != nil {
		return fmt.Errorf("failed to write recall flag: %w", err)
	}
	return nil
}
