// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func testNodeID(i int) ids.NodeID {
	var nodeID ids.NodeID
	nodeID[0] = byte(i + 1)
	return nodeID
}

func testID(i byte) ids.ID {
	var id ids.ID
	id[0] = i
	return id
}

// newTestCommittee creates a 2/3 quorum committee with one signer per
// weight entry
func newTestCommittee(t *testing.T, weights ...uint64) (*Set, []*Signer) {
	signers := make([]*Signer, len(weights))
	witnesses := make([]*Witness, len(weights))
	for i, weight := range weights {
		s, err := GenerateSigner()
		require.NoError(t, err)
		signers[i] = s
		witnesses[i] = NewWitness(s.PublicKey(), weight, testNodeID(i))
	}

	ws, err := NewSet(witnesses, 2, 3)
	require.NoError(t, err)
	return ws, signers
}

func TestNewSetValidation(t *testing.T) {
	s, err := GenerateSigner()
	require.NoError(t, err)
	other, err := GenerateSigner()
	require.NoError(t, err)

	tests := []struct {
		name      string
		witnesses []*Witness
		quorumNum uint64
		quorumDen uint64
		wantErr   bool
	}{
		{
			name:      "empty set",
			witnesses: nil,
			quorumNum: 2,
			quorumDen: 3,
			wantErr:   true,
		},
		{
			name: "valid set",
			witnesses: []*Witness{
				NewWitness(s.PublicKey(), 1, testNodeID(0)),
				NewWitness(other.PublicKey(), 1, testNodeID(1)),
			},
			quorumNum: 2,
			quorumDen: 3,
		},
		{
			name: "zero weight",
			witnesses: []*Witness{
				NewWitness(s.PublicKey(), 0, testNodeID(0)),
			},
			quorumNum: 2,
			quorumDen: 3,
			wantErr:   true,
		},
		{
			name: "duplicate public key",
			witnesses: []*Witness{
				NewWitness(s.PublicKey(), 1, testNodeID(0)),
				NewWitness(s.PublicKey(), 1, testNodeID(1)),
			},
			quorumNum: 2,
			quorumDen: 3,
			wantErr:   true,
		},
		{
			name: "duplicate node id",
			witnesses: []*Witness{
				NewWitness(s.PublicKey(), 1, testNodeID(0)),
				NewWitness(other.PublicKey(), 1, testNodeID(0)),
			},
			quorumNum: 2,
			quorumDen: 3,
			wantErr:   true,
		},
		{
			name: "zero quorum denominator",
			witnesses: []*Witness{
				NewWitness(s.PublicKey(), 1, testNodeID(0)),
			},
			quorumNum: 1,
			quorumDen: 0,
			wantErr:   true,
		},
		{
			name: "quorum above one",
			witnesses: []*Witness{
				NewWitness(s.PublicKey(), 1, testNodeID(0)),
			},
			quorumNum: 4,
			quorumDen: 3,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSet(tt.witnesses, tt.quorumNum, tt.quorumDen)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSetCanonicalOrder(t *testing.T) {
	ws, _ := newTestCommittee(t, 1, 2, 3, 4)

	witnesses := ws.Witnesses()
	require.Len(t, witnesses, 4)
	for i := 1; i < len(witnesses); i++ {
		require.True(t, witnesses[i-1].Less(witnesses[i]))
	}

	// reversed input must produce the same ordering
	reversed := make([]*Witness, len(witnesses))
	for i, w := range witnesses {
		reversed[len(witnesses)-1-i] = w
	}
	ws2, err := NewSet(reversed, 2, 3)
	require.NoError(t, err)
	for i, w := range ws2.Witnesses() {
		require.Equal(t, witnesses[i].PublicKeyBytes, w.PublicKeyBytes)
	}
}

func TestSetIndex(t *testing.T) {
	ws, _ := newTestCommittee(t, 1, 1, 1)

	for i, w := range ws.Witnesses() {
		index, ok := ws.Index(w.NodeID)
		require.True(t, ok)
		require.Equal(t, i, index)
	}

	_, ok := ws.Index(testNodeID(99))
	require.False(t, ok)
}

func TestMeetsQuorum(t *testing.T) {
	tests := []struct {
		name         string
		weights      []uint64
		quorumNum    uint64
		quorumDen    uint64
		signedWeight uint64
		want         bool
	}{
		{
			name:         "exact threshold",
			weights:      []uint64{50, 50},
			quorumNum:    67,
			quorumDen:    100,
			signedWeight: 67,
			want:         true,
		},
		{
			name:         "below threshold",
			weights:      []uint64{50, 50},
			quorumNum:    67,
			quorumDen:    100,
			signedWeight: 66,
			want:         false,
		},
		{
			name:         "threshold truncates down",
			weights:      []uint64{5, 5},
			quorumNum:    67,
			quorumDen:    100,
			signedWeight: 6,
			want:         true,
		},
		{
			name:         "zero weight",
			weights:      []uint64{1, 1, 1},
			quorumNum:    1,
			quorumDen:    3,
			signedWeight: 0,
			want:         false,
		},
		{
			name:         "full weight",
			weights:      []uint64{10, 20, 30},
			quorumNum:    2,
			quorumDen:    3,
			signedWeight: 60,
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			witnesses := make([]*Witness, len(tt.weights))
			for i, weight := range tt.weights {
				s, err := GenerateSigner()
				require.NoError(t, err)
				witnesses[i] = NewWitness(s.PublicKey(), weight, testNodeID(i))
			}
			ws, err := NewSet(witnesses, tt.quorumNum, tt.quorumDen)
			require.NoError(t, err)
			require.Equal(t, tt.want, ws.MeetsQuorum(tt.signedWeight))
		})
	}
}

func TestTotalWeightOverflow(t *testing.T) {
	s, err := GenerateSigner()
	require.NoError(t, err)
	other, err := GenerateSigner()
	require.NoError(t, err)

	witnesses := []*Witness{
		NewWitness(s.PublicKey(), ^uint64(0), testNodeID(0)),
		NewWitness(other.PublicKey(), 1, testNodeID(1)),
	}
	_, err = NewSet(witnesses, 2, 3)
	require.Error(t, err)
}
