// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package witness implements proof-of-inclusion for bridge signals. A
// committee of weighted witnesses observes each chain; enough of their
// BLS signatures over a claim, aggregated into a compact proof, convince
// a bridge on another chain that a signal was recorded.
package witness

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
)

var (
	ErrEmptySet           = errors.New("empty witness set")
	ErrInvalidQuorum      = errors.New("invalid quorum fraction")
	ErrInsufficientWeight = errors.New("insufficient signed weight")
)

// Witness is one member of a chain's observation committee
type Witness struct {
	PublicKey      *bls.PublicKey
	PublicKeyBytes []byte
	Weight         uint64
	NodeID         ids.NodeID
}

// NewWitness derives the compressed key bytes used for canonical ordering
func NewWitness(publicKey *bls.PublicKey, weight uint64, nodeID ids.NodeID) *Witness {
	return &Witness{
		PublicKey:      publicKey,
		PublicKeyBytes: bls.PublicKeyToCompressedBytes(publicKey),
		Weight:         weight,
		NodeID:         nodeID,
	}
}

// Less orders witnesses by compressed public key
func (w *Witness) Less(other *Witness) bool {
	return bytes.Compare(w.PublicKeyBytes, other.PublicKeyBytes) < 0
}

// Set is a canonically ordered witness committee with a quorum fraction.
// Proof signer indices refer to this ordering, so every party must build
// the set from the same members.
type Set struct {
	witnesses   []*Witness
	byNodeID    map[ids.NodeID]int
	totalWeight uint64
	quorumNum   uint64
	quorumDen   uint64
}

// NewSet validates the members and sorts them into canonical order
func NewSet(witnesses []*Witness, quorumNum, quorumDen uint64) (*Set, error) {
	if len(witnesses) == 0 {
		return nil, ErrEmptySet
	}
	if quorumDen == 0 || quorumNum == 0 || quorumNum > quorumDen {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidQuorum, quorumNum, quorumDen)
	}

	seen := make(map[string]bool, len(witnesses))
	var totalWeight uint64
	for _, w := range witnesses {
		if w == nil {
			return nil, errors.New("nil witness")
		}
		if w.Weight == 0 {
			return nil, errors.New("witness has zero weight")
		}
		if len(w.PublicKeyBytes) == 0 || w.PublicKey == nil {
			return nil, errors.New("witness has no public key")
		}

		key := string(w.PublicKeyBytes)
		if seen[key] {
			return nil, fmt.Errorf("duplicate witness public key: %x", w.PublicKeyBytes)
		}
		seen[key] = true

		newWeight, err := addUint64(totalWeight, w.Weight)
		if err != nil {
			return nil, fmt.Errorf("total weight overflow: %w", err)
		}
		totalWeight = newWeight
	}

	sorted := make([]*Witness, len(witnesses))
	copy(sorted, witnesses)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})

	byNodeID := make(map[ids.NodeID]int, len(sorted))
	for i, w := range sorted {
		if _, ok := byNodeID[w.NodeID]; ok {
			return nil, fmt.Errorf("duplicate witness node id: %s", w.NodeID)
		}
		byNodeID[w.NodeID] = i
	}

	return &Set{
		witnesses:   sorted,
		byNodeID:    byNodeID,
		totalWeight: totalWeight,
		quorumNum:   quorumNum,
		quorumDen:   quorumDen,
	}, nil
}

// Witnesses returns the members in canonical order
func (s *Set) Witnesses() []*Witness {
	return s.witnesses
}

// Len returns the committee size
func (s *Set) Len() int {
	return len(s.witnesses)
}

// TotalWeight returns the summed member weight
func (s *Set) TotalWeight() uint64 {
	return s.totalWeight
}

// NodeIDs returns the member node ids in canonical order
func (s *Set) NodeIDs() []ids.NodeID {
	nodeIDs := make([]ids.NodeID, len(s.witnesses))
	for i, w := range s.witnesses {
		nodeIDs[i] = w.NodeID
	}
	return nodeIDs
}

// Index returns the canonical index of a member node
func (s *Set) Index(nodeID ids.NodeID) (int, bool) {
	i, ok := s.byNodeID[nodeID]
	return i, ok
}

// MeetsQuorum reports whether a signed weight clears the quorum fraction
// of the total weight
func (s *Set) MeetsQuorum(signedWeight uint64) bool {
	threshold := new(big.Int).Mul(
		new(big.Int).SetUint64(s.totalWeight),
		new(big.Int).SetUint64(s.quorumNum),
	)
	threshold.Div(threshold, new(big.Int).SetUint64(s.quorumDen))
	return new(big.Int).SetUint64(signedWeight).Cmp(threshold) != -1
}

func addUint64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, errors.New("addition would overflow")
	}
	return a + b, nil
}
