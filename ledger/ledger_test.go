// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.Address{0x01}
	bob   = common.Address{0x02}
)

func TestMintAndBalance(t *testing.T) {
	require := require.New(t)

	l := New()
	require.True(l.BalanceOf(alice).IsZero())

	require.NoError(l.Mint(alice, uint256.NewInt(100)))
	require.NoError(l.Mint(alice, uint256.NewInt(50)))

	require.Equal(uint256.NewInt(150), l.BalanceOf(alice))
	require.Equal(uint256.NewInt(150), l.TotalSupply())
}

func TestTransfer(t *testing.T) {
	require := require.New(t)

	l := New()
	require.NoError(l.Mint(alice, uint256.NewInt(100)))

	require.NoError(l.Transfer(alice, bob, uint256.NewInt(40)))
	require.Equal(uint256.NewInt(60), l.BalanceOf(alice))
	require.Equal(uint256.NewInt(40), l.BalanceOf(bob))

	// moving value never changes the supply
	require.Equal(uint256.NewInt(100), l.TotalSupply())
}

func TestTransferInsufficientFunds(t *testing.T) {
	require := require.New(t)

	l := New()
	require.NoError(l.Mint(alice, uint256.NewInt(10)))

	err := l.Transfer(alice, bob, uint256.NewInt(11))
	require.ErrorIs(err, ErrInsufficientFunds)
	require.Equal(uint256.NewInt(10), l.BalanceOf(alice))
	require.True(l.BalanceOf(bob).IsZero())

	err = l.Transfer(bob, alice, uint256.NewInt(1))
	require.ErrorIs(err, ErrInsufficientFunds)
}

func TestTransferToSelf(t *testing.T) {
	require := require.New(t)

	l := New()
	require.NoError(l.Mint(alice, uint256.NewInt(25)))
	require.NoError(l.Transfer(alice, alice, uint256.NewInt(25)))
	require.Equal(uint256.NewInt(25), l.BalanceOf(alice))
}

func TestTransferZero(t *testing.T) {
	require := require.New(t)

	l := New()
	require.NoError(l.Transfer(alice, bob, nil))
	require.NoError(l.Transfer(alice, bob, new(uint256.Int)))
	require.True(l.BalanceOf(bob).IsZero())
}

func TestMintOverflow(t *testing.T) {
	require := require.New(t)

	max := new(uint256.Int).SetAllOne()

	l := New()
	require.NoError(l.Mint(alice, max))
	require.ErrorIs(l.Mint(alice, uint256.NewInt(1)), ErrBalanceOverflow)
	require.Equal(max, l.BalanceOf(alice))
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	require := require.New(t)

	l := New()
	require.NoError(l.Mint(alice, uint256.NewInt(7)))

	balance := l.BalanceOf(alice)
	balance.SetUint64(0)
	require.Equal(uint256.NewInt(7), l.BalanceOf(alice))
}
