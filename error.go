// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import "errors"

var (
	// ErrInvalidMessage indicates a malformed or oversized message
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidDestination indicates the destination chain is disabled
	// or equals the source chain
	ErrInvalidDestination = errors.New("invalid destination chain")

	// ErrInvalidOwner indicates a zero owner address
	ErrInvalidOwner = errors.New("invalid owner")

	// ErrInvalidValue indicates the attached value does not equal
	// value plus fee
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidChainID indicates the operation was routed to a chain the
	// message does not belong to
	ErrInvalidChainID = errors.New("invalid chain id")

	// ErrPermissionDenied indicates the caller may not perform the
	// operation on this message
	ErrPermissionDenied = errors.New("permission denied")

	// ErrStatusMismatch indicates the stored status does not allow the
	// operation
	ErrStatusMismatch = errors.New("status mismatch")

	// ErrProofInvalid indicates inclusion proof verification failed
	ErrProofInvalid = errors.New("invalid inclusion proof")

	// ErrInvalidGasLimit indicates zero gas was requested for an actual
	// invocation
	ErrInvalidGasLimit = errors.New("invalid gas limit")

	// ErrAlreadyRecalled indicates the message's custody was already
	// released on the source chain
	ErrAlreadyRecalled = errors.New("message already recalled")

	// ErrNotFailed indicates the failure of the message is not provable
	ErrNotFailed = errors.New("message not failed")

	// ErrPaused indicates the bridge kill switch is engaged
	ErrPaused = errors.New("bridge paused")
)
