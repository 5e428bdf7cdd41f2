// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

// Custody escrows the native value pledged by in-flight messages. A lock
// failure must abort the surrounding send; Release must never exceed the
// cumulative locked-minus-released balance.
type Custody interface {
	// Lock moves amount from the account into escrow
	Lock(from common.Address, amount *uint256.Int) error

	// Release moves previously escrowed amount to the recipient
	Release(to common.Address, amount *uint256.Int) error

	// Address returns the escrow account address
	Address() common.Address
}

// SignalService records opaque markers attributable to (chain, account)
// and proves, given a cross-chain inclusion proof, that a marker was
// recorded on a specific chain by a specific account. Verification is
// deterministic and sound; the bridge treats it as an oracle.
type SignalService interface {
	// RecordSignal records a signal attributable to the account on the
	// local chain
	RecordSignal(account common.Address, signal ids.ID) error

	// HasSignal reports whether the signal is in the local chain's own
	// record
	HasSignal(account common.Address, signal ids.ID) bool

	// VerifyInclusion checks that the signal was recorded by the account
	// on the given chain, as attested by proof
	VerifyInclusion(chainID ids.ID, account common.Address, signal ids.ID, proof []byte) error
}

// NativeLedger moves the native asset between accounts on one chain
type NativeLedger interface {
	Transfer(from, to common.Address, amount *uint256.Int) error
}

// Recipient is a destination target that executes bridged payloads.
// Returning an error marks the delivery attempt as failed; the value is
// then returned to custody rather than left with the target.
type Recipient interface {
	OnMessageInvocation(ctx CallContext, data []byte, value *uint256.Int, gas uint64) error
}

// RecallableSender is an optional capability of a registered sender. When
// a failed message is recalled, a sender exposing this capability receives
// the unwound value through the callback instead of a direct transfer to
// the source owner.
type RecallableSender interface {
	OnMessageRecalled(msg *Message, msgHash ids.ID, value *uint256.Int) error
}
