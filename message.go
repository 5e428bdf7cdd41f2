// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

const (
	CodecVersion = 0

	// KiB is 1024 bytes
	KiB = 1024

	// MaxMessageSize bounds the encoded size of a single message
	MaxMessageSize = 256 * KiB
)

// Message describes one cross-chain instruction. ID, From and SrcChainID
// are assigned by the sending bridge; all fields are frozen once sent and
// the message's identity is the hash of its encoded contents.
type Message struct {
	// ID is a sequence number unique per source bridge instance
	ID uint64
	// Fee is paid to whoever successfully delivers the message
	Fee *uint256.Int
	// GasLimit is the destination execution budget. Zero means only the
	// destination owner may deliver.
	GasLimit uint64
	// From is the account that submitted the send
	From common.Address

	SrcChainID  ids.ID
	DestChainID ids.ID

	// SrcOwner receives the recalled value if delivery permanently fails
	SrcOwner common.Address
	// DestOwner receives delivery refunds and controls zero-gas delivery
	DestOwner common.Address

	// To is the destination call target
	To common.Address
	// Value is the native asset forwarded with the call
	Value *uint256.Int
	// Data is the opaque call payload
	Data []byte
}

// normalize replaces nil amounts with zero so that encoding, hashing and
// comparison are stable regardless of how the message was constructed.
func (m *Message) normalize() {
	if m.Fee == nil {
		m.Fee = new(uint256.Int)
	}
	if m.Value == nil {
		m.Value = new(uint256.Int)
	}
}

// Verify verifies the message is well formed
func (m *Message) Verify() error {
	b, err := Codec.Marshal(CodecVersion, m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if len(b) > MaxMessageSize {
		return fmt.Errorf("%w: message size %d exceeds maximum %d", ErrInvalidMessage, len(b), MaxMessageSize)
	}
	return nil
}

// Bytes returns the canonical byte representation of the message
func (m *Message) Bytes() []byte {
	b, _ := Codec.Marshal(CodecVersion, m)
	return b
}

// Hash returns the Keccak-256 hash of the canonical message bytes. Two
// messages with distinct ids always hash differently, even when every
// user-supplied field matches.
func (m *Message) Hash() ids.ID {
	return ids.ID(crypto.Keccak256Hash(m.Bytes()))
}

// Equal returns true if two messages encode identically
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	return bytes.Equal(m.Bytes(), other.Bytes())
}

func (m *Message) String() string {
	return fmt.Sprintf("message %d %s -> %s to %s", m.ID, m.SrcChainID, m.DestChainID, m.To)
}

// ParseMessage parses a message from bytes
func ParseMessage(b []byte) (*Message, error) {
	msg := &Message{}
	if _, err := Codec.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	msg.normalize()
	if err := msg.Verify(); err != nil {
		return nil, err
	}
	return msg, nil
}
