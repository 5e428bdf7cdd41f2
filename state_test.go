// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"testing"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/stretchr/testify/require"
)

func TestStoreMessageIDs(t *testing.T) {
	require := require.New(t)

	s := newStore(dbm.NewMemDB())

	next, err := s.peekMessageID()
	require.NoError(err)
	require.Zero(next)

	for want := uint64(0); want < 5; want++ {
		id, err := s.nextMessageID()
		require.NoError(err)
		require.Equal(want, id)
	}

	next, err = s.peekMessageID()
	require.NoError(err)
	require.Equal(uint64(5), next)
}

func TestStoreMessageIDsSurviveReopen(t *testing.T) {
	require := require.New(t)

	db := dbm.NewMemDB()

	s := newStore(db)
	id, err := s.nextMessageID()
	require.NoError(err)
	require.Zero(id)
	id, err = s.nextMessageID()
	require.NoError(err)
	require.Equal(uint64(1), id)

	// a fresh store over the same database continues the sequence
	reopened := newStore(db)
	id, err = reopened.nextMessageID()
	require.NoError(err)
	require.Equal(uint64(2), id)
}

func TestStoreStatus(t *testing.T) {
	require := require.New(t)

	s := newStore(dbm.NewMemDB())
	msgHash := testID(1)

	// absent means new
	status, err := s.status(msgHash)
	require.NoError(err)
	require.Equal(StatusNew, status)

	for _, want := range []Status{StatusRetriable, StatusDone, StatusFailed} {
		require.NoError(s.setStatus(msgHash, want))
		status, err := s.status(msgHash)
		require.NoError(err)
		require.Equal(want, status)
	}

	// other hashes are unaffected
	status, err = s.status(testID(2))
	require.NoError(err)
	require.Equal(StatusNew, status)
}

func TestStoreRecalled(t *testing.T) {
	require := require.New(t)

	s := newStore(dbm.NewMemDB())
	msgHash := testID(1)

	recalled, err := s.isRecalled(msgHash)
	require.NoError(err)
	require.False(recalled)

	require.NoError(s.setRecalled(msgHash))

	recalled, err = s.isRecalled(msgHash)
	require.NoError(err)
	require.True(recalled)

	recalled, err = s.isRecalled(testID(2))
	require.NoError(err)
	require.False(recalled)
}
