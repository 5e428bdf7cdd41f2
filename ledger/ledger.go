// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger provides an in-process native value ledger. It stands in
// for the chain's account balances when the bridge runs embedded or under
// test.
package ledger

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the account balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrBalanceOverflow is returned when a credit would overflow the account balance
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Ledger tracks native value balances by account
type Ledger struct {
	mu       sync.RWMutex
	balances map[common.Address]*uint256.Int
}

func New() *Ledger {
	return &Ledger{
		balances: make(map[common.Address]*uint256.Int),
	}
}

// Mint credits newly issued value to an account
func (l *Ledger) Mint(to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credit(to, amount)
}

// Transfer moves value between accounts. The debit and credit are applied
// atomically under the ledger lock.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[from]
	if !ok || balance.Lt(amount) {
		return ErrInsufficientFunds
	}
	if err := l.credit(to, amount); err != nil {
		return err
	}
	balance.Sub(balance, amount)
	return nil
}

// BalanceOf returns a copy of the account balance
func (l *Ledger) BalanceOf(addr common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balance, ok := l.balances[addr]
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(balance)
}

// TotalSupply returns the sum of all balances
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := new(uint256.Int)
	for _, balance := range l.balances {
		total.Add(total, balance)
	}
	return total
}

func (l *Ledger) credit(to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	balance, ok := l.balances[to]
	if !ok {
		balance = new(uint256.Int)
		l.balances[to] = balance
	}
	sum, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return ErrBalanceOverflow
	}
	balance.Set(sum)
	return nil
}
