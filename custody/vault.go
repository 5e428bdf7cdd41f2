// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package custody escrows native value for in-flight bridge messages. The
// vault owns a ledger account and tracks the total it holds on behalf of
// the bridge, so a release can never exceed what was locked.
package custody

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// ErrExceedsLocked is returned when a release exceeds the locked total
var ErrExceedsLocked = errors.New("release exceeds locked total")

// Ledger is the value-moving dependency of the vault
type Ledger interface {
	Transfer(from, to common.Address, amount *uint256.Int) error
}

// Vault escrows value in a dedicated ledger account
type Vault struct {
	mu      sync.Mutex
	address common.Address
	ledger  Ledger
	locked  *uint256.Int
}

func NewVault(address common.Address, ledger Ledger) *Vault {
	return &Vault{
		address: address,
		ledger:  ledger,
		locked:  new(uint256.Int),
	}
}

// Address returns the vault's ledger account
func (v *Vault) Address() common.Address {
	return v.address
}

// Lock pulls value from an account into escrow
func (v *Vault) Lock(from common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	sum, overflow := new(uint256.Int).AddOverflow(v.locked, amount)
	if overflow {
		return errors.New("locked total overflow")
	}
	if err := v.ledger.Transfer(from, v.address, amount); err != nil {
		return fmt.Errorf("failed to lock funds: %w", err)
	}
	v.locked.Set(sum)
	return nil
}

// Release pays escrowed value out to an account
func (v *Vault) Release(to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.locked.Lt(amount) {
		return ErrExceedsLocked
	}
	if err := v.ledger.Transfer(v.address, to, amount); err != nil {
		return fmt.Errorf("failed to release funds: %w", err)
	}
	v.locked.Sub(v.locked, amount)
	return nil
}

// Locked returns a copy of the escrowed total
func (v *Vault) Locked() *uint256.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(uint256.Int).Set(v.locked)
}
