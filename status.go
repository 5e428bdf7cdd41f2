// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/luxfi/crypto"
	"github.com/luxfi/ids"
)

// Status tracks the delivery state of a message on its destination chain.
// A message with no stored entry is StatusNew.
type Status uint8

const (
	StatusNew Status = iota
	StatusRetriable
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusRetriable:
		return "retriable"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// failedMarker separates failure signals from send signals. The send
// signal for a message is its hash; the failure signal is the hash XOR
// this marker, so the two can never collide for the same message.
var failedMarker = ids.ID(crypto.Keccak256Hash([]byte("BRIDGE_MESSAGE_FAILED")))

// FailureSignal derives the failure signal for a message hash
func FailureSignal(msgHash ids.ID) ids.ID {
	var signal ids.ID
	for i := range msgHash {
		signal[i] = msgHash[i] ^ failedMarker[i]
	}
	return signal
}
