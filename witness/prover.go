// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"

	"github.com/luxfi/bridge/cache"
)

// A completed proof stays valid for the committee that produced it, so
// proofs cache without expiry; the size only bounds memory.
const proofCacheSize = 1024

// Prover produces quorum proofs for claims
type Prover interface {
	Prove(ctx context.Context, claim *Claim) (*Proof, error)
}

var (
	_ Prover = (*CommitteeProver)(nil)
	_ Prover = (*LocalProver)(nil)
)

// CommitteeProver resolves the committee attesting the claim's chain and
// collects attestations over p2p. Completed proofs are cached.
type CommitteeProver struct {
	collector *Collector
	proofs    *cache.LRUCache[ids.ID, *Proof]

	mu   sync.RWMutex
	sets map[ids.ID]*Set
}

func NewCommitteeProver(collector *Collector) *CommitteeProver {
	return &CommitteeProver{
		collector: collector,
		proofs:    cache.NewLRUCache[ids.ID, *Proof](proofCacheSize),
		sets:      make(map[ids.ID]*Set),
	}
}

// RegisterSet installs the committee attesting a chain's signals
func (p *CommitteeProver) RegisterSet(chainID ids.ID, ws *Set) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets[chainID] = ws
}

func (p *CommitteeProver) Prove(ctx context.Context, claim *Claim) (*Proof, error) {
	return p.proofs.Get(claim.Hash(), func(ids.ID) (*Proof, error) {
		return p.collect(ctx, claim)
	})
}

func (p *CommitteeProver) collect(ctx context.Context, claim *Claim) (*Proof, error) {
	p.mu.RLock()
	ws, ok := p.sets[claim.ChainID]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no witness set for chain %s", claim.ChainID)
	}

	proof, _, err := p.collector.CollectProof(ctx, claim, ws)
	return proof, err
}

// LocalProver asks in-process notaries directly. It serves embedded
// deployments and tests, where the committee runs in the same process as
// the bridges. Completed proofs are cached.
type LocalProver struct {
	proofs *cache.LRUCache[ids.ID, *Proof]

	mu       sync.RWMutex
	sets     map[ids.ID]*Set
	notaries []*Notary
}

func NewLocalProver() *LocalProver {
	return &LocalProver{
		proofs: cache.NewLRUCache[ids.ID, *Proof](proofCacheSize),
		sets:   make(map[ids.ID]*Set),
	}
}

// RegisterSet installs the committee attesting a chain's signals
func (p *LocalProver) RegisterSet(chainID ids.ID, ws *Set) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets[chainID] = ws
}

// AddNotary adds a committee member's notary
func (p *LocalProver) AddNotary(n *Notary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notaries = append(p.notaries, n)
}

// Prove gathers attestations from the notaries until quorum. A notary
// that refuses the claim is skipped, not fatal.
func (p *LocalProver) Prove(ctx context.Context, claim *Claim) (*Proof, error) {
	return p.proofs.Get(claim.Hash(), func(ids.ID) (*Proof, error) {
		return p.collect(ctx, claim)
	})
}

func (p *LocalProver) collect(ctx context.Context, claim *Claim) (*Proof, error) {
	p.mu.RLock()
	ws, ok := p.sets[claim.ChainID]
	notaries := make([]*Notary, len(p.notaries))
	copy(notaries, p.notaries)
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no witness set for chain %s", claim.ChainID)
	}

	var (
		signers = set.NewBits()
		sigs    = make([]*bls.Signature, 0, len(notaries))
		weight  uint64
	)
	for _, n := range notaries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sigBytes, err := n.Attest(claim)
		if err != nil {
			continue
		}
		index, ok := indexOfKey(ws, n.PublicKey())
		if !ok || signers.Contains(index) {
			continue
		}
		sig, err := bls.SignatureFromBytes(sigBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse attestation: %w", err)
		}

		sigs = append(sigs, sig)
		signers.Add(index)
		weight += ws.Witnesses()[index].Weight
		if ws.MeetsQuorum(weight) {
			return buildProof(signers, sigs)
		}
	}
	return nil, fmt.Errorf("%w: %d of %d", ErrInsufficientWeight, weight, ws.TotalWeight())
}

// ProveClaim signs the claim with each signer found in the witness set
// and aggregates the result, with no observation check. Deployments use
// notary-backed provers; this is the raw building block.
func ProveClaim(claim *Claim, ws *Set, signers []*Signer) (*Proof, error) {
	bits := set.NewBits()
	sigs := make([]*bls.Signature, 0, len(signers))
	for _, s := range signers {
		index, ok := indexOfKey(ws, s.PublicKey())
		if !ok {
			return nil, fmt.Errorf("signer not in witness set")
		}
		if bits.Contains(index) {
			continue
		}
		sig, err := s.SignClaim(claim)
		if err != nil {
			return nil, fmt.Errorf("failed to sign claim: %w", err)
		}
		bits.Add(index)
		sigs = append(sigs, sig)
	}
	return buildProof(bits, sigs)
}

func indexOfKey(ws *Set, pk *bls.PublicKey) (int, bool) {
	pkBytes := bls.PublicKeyToCompressedBytes(pk)
	for i, w := range ws.Witnesses() {
		if bytes.Equal(w.PublicKeyBytes, pkBytes) {
			return i, true
		}
	}
	return 0, false
}
