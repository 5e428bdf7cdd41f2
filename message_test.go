// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func testID(i byte) ids.ID {
	var id ids.ID
	id[0] = i
	return id
}

func testMessage() *Message {
	return &Message{
		ID:          1,
		Fee:         uint256.NewInt(5),
		GasLimit:    50_000,
		From:        common.Address{0x01},
		SrcChainID:  testID(1),
		DestChainID: testID(2),
		SrcOwner:    common.Address{0x01},
		DestOwner:   common.Address{0x02},
		To:          common.Address{0x03},
		Value:       uint256.NewInt(100),
		Data:        []byte("payload"),
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg := testMessage()

	parsed, err := ParseMessage(msg.Bytes())
	require.NoError(t, err)
	require.Equal(t, msg, parsed)
	require.True(t, msg.Equal(parsed))
	require.Equal(t, msg.Hash(), parsed.Hash())
}

func TestMessageHashUniqueness(t *testing.T) {
	base := testMessage()

	// changing any field changes the hash
	mutations := map[string]func(*Message){
		"id":          func(m *Message) { m.ID++ },
		"fee":         func(m *Message) { m.Fee = uint256.NewInt(6) },
		"gas limit":   func(m *Message) { m.GasLimit++ },
		"from":        func(m *Message) { m.From = common.Address{0x0f} },
		"src chain":   func(m *Message) { m.SrcChainID = testID(9) },
		"dest chain":  func(m *Message) { m.DestChainID = testID(9) },
		"src owner":   func(m *Message) { m.SrcOwner = common.Address{0x0f} },
		"dest owner":  func(m *Message) { m.DestOwner = common.Address{0x0f} },
		"to":          func(m *Message) { m.To = common.Address{0x0f} },
		"value":       func(m *Message) { m.Value = uint256.NewInt(101) },
		"data":        func(m *Message) { m.Data = []byte("other") },
		"empty data":  func(m *Message) { m.Data = nil },
	}

	seen := map[string]bool{base.Hash().String(): true}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			m := *base
			mutate(&m)
			h := m.Hash().String()
			require.False(t, seen[h])
			seen[h] = true
		})
	}
}

func TestMessageSameContentSameHash(t *testing.T) {
	a := testMessage()
	b := testMessage()
	require.Equal(t, a.Hash(), b.Hash())
	require.True(t, a.Equal(b))
}

func TestMessageNormalize(t *testing.T) {
	withNil := &Message{
		ID:          1,
		SrcChainID:  testID(1),
		DestChainID: testID(2),
	}
	withZero := &Message{
		ID:          1,
		Fee:         new(uint256.Int),
		Value:       new(uint256.Int),
		SrcChainID:  testID(1),
		DestChainID: testID(2),
	}

	// nil and explicit zero amounts encode identically
	withNil.normalize()
	require.Equal(t, withZero.Hash(), withNil.Hash())
}

func TestMessageVerifySize(t *testing.T) {
	msg := testMessage()
	require.NoError(t, msg.Verify())

	msg.Data = make([]byte, MaxMessageSize+1)
	err := msg.Verify()
	require.ErrorIs(t, err, ErrInvalidMessage)
}

func TestParseMessageInvalid(t *testing.T) {
	_, err := ParseMessage([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
}

func TestFailureSignal(t *testing.T) {
	msg := testMessage()
	msgHash := msg.Hash()

	signal := FailureSignal(msgHash)
	require.NotEqual(t, msgHash, signal)

	// XOR with the marker is an involution
	require.Equal(t, msgHash, FailureSignal(signal))

	// distinct hashes give distinct signals
	other := testMessage()
	other.ID++
	require.NotEqual(t, signal, FailureSignal(other.Hash()))
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "new", StatusNew.String())
	require.Equal(t, "retriable", StatusRetriable.String())
	require.Equal(t, "done", StatusDone.String())
	require.Equal(t, "failed", StatusFailed.String())
}

func TestCallContextSentinel(t *testing.T) {
	require.False(t, sentinelCallContext.Valid())

	ctx := CallContext{
		MsgHash:    testID(1),
		From:       common.Address{0x01},
		SrcChainID: testID(2),
	}
	require.True(t, ctx.Valid())
}
