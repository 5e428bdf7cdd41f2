// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

func TestRegistryRecordHas(t *testing.T) {
	r := NewRegistry()
	account := common.Address{0xaa}

	require.False(t, r.Has(testID(1), account, testID(7)))

	r.Record(testID(1), account, testID(7))
	require.True(t, r.Has(testID(1), account, testID(7)))

	// per-chain, per-account, per-signal isolation
	require.False(t, r.Has(testID(2), account, testID(7)))
	require.False(t, r.Has(testID(1), common.Address{0xbb}, testID(7)))
	require.False(t, r.Has(testID(1), account, testID(8)))
}

func TestServiceRecordAndLookup(t *testing.T) {
	registry := NewRegistry()
	service := NewService(log.NoLog{}, testID(1), registry)
	account := common.Address{0xaa}

	require.False(t, service.HasSignal(account, testID(7)))
	require.NoError(t, service.RecordSignal(account, testID(7)))
	require.True(t, service.HasSignal(account, testID(7)))

	// the record lands under the service's own chain
	require.True(t, registry.Has(testID(1), account, testID(7)))
	require.False(t, registry.Has(testID(2), account, testID(7)))
}

func TestServiceVerifyInclusion(t *testing.T) {
	ws, signers := newTestCommittee(t, 1, 1, 1)
	service := NewService(log.NoLog{}, testID(2), NewRegistry())
	service.RegisterSet(testID(1), ws)

	account := common.Address{0xaa}
	claim := &Claim{ChainID: testID(1), Account: account, Signal: testID(7)}

	proof, err := ProveClaim(claim, ws, signers)
	require.NoError(t, err)

	require.NoError(t, service.VerifyInclusion(testID(1), account, testID(7), proof.Bytes()))

	// same proof is not valid for any other statement
	require.Error(t, service.VerifyInclusion(testID(1), account, testID(8), proof.Bytes()))
	require.Error(t, service.VerifyInclusion(testID(1), common.Address{0xbb}, testID(7), proof.Bytes()))

	// no committee registered for the named chain
	require.Error(t, service.VerifyInclusion(testID(3), account, testID(7), proof.Bytes()))

	// garbage proof bytes
	require.Error(t, service.VerifyInclusion(testID(1), account, testID(7), []byte{0x01}))
}

func TestServiceVerifyInclusionQuorum(t *testing.T) {
	ws, signers := newTestCommittee(t, 1, 1, 1)
	service := NewService(log.NoLog{}, testID(2), NewRegistry())
	service.RegisterSet(testID(1), ws)

	account := common.Address{0xaa}
	claim := &Claim{ChainID: testID(1), Account: account, Signal: testID(7)}

	// one of three weights is below the 2/3 quorum
	thin, err := ProveClaim(claim, ws, signers[:1])
	require.NoError(t, err)
	err = service.VerifyInclusion(testID(1), account, testID(7), thin.Bytes())
	require.ErrorIs(t, err, ErrInsufficientWeight)

	quorum, err := ProveClaim(claim, ws, signers[:2])
	require.NoError(t, err)
	require.NoError(t, service.VerifyInclusion(testID(1), account, testID(7), quorum.Bytes()))
}
