// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/luxfi/crypto"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/rlp"
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"
)

var ErrInvalidAttestation = errors.New("invalid attestation signature")

// Claim is the statement a witness attests to: the account on the given
// chain recorded the signal
type Claim struct {
	ChainID ids.ID
	Account common.Address
	Signal  ids.ID
}

// Bytes returns the canonical encoding witnesses sign
func (c *Claim) Bytes() []byte {
	b, err := rlp.EncodeToBytes(c)
	if err != nil {
		// fields are fixed-size arrays; encoding cannot fail
		panic(err)
	}
	return b
}

// Hash identifies the claim for caching and logging
func (c *Claim) Hash() ids.ID {
	return ids.ID(crypto.Keccak256Hash(c.Bytes()))
}

func (c *Claim) String() string {
	return fmt.Sprintf("claim %s@%s on %s", c.Signal, c.Account, c.ChainID)
}

// ParseClaim decodes a claim from its canonical encoding
func ParseClaim(b []byte) (*Claim, error) {
	claim := &Claim{}
	if err := rlp.DecodeBytes(b, claim); err != nil {
		return nil, fmt.Errorf("failed to parse claim: %w", err)
	}
	return claim, nil
}

// Proof is an aggregated attestation of a claim. Signers is a bit set
// over the canonical ordering of the witness set; Signature is the
// aggregate of the flagged members' signatures over the claim bytes.
type Proof struct {
	Signers   []byte
	Signature [bls.SignatureLen]byte
}

// Bytes returns the proof encoding carried alongside a message
func (p *Proof) Bytes() []byte {
	b, err := rlp.EncodeToBytes(p)
	if err != nil {
		panic(err)
	}
	return b
}

// ParseProof decodes a proof
func ParseProof(b []byte) (*Proof, error) {
	proof := &Proof{}
	if err := rlp.DecodeBytes(b, proof); err != nil {
		return nil, fmt.Errorf("failed to parse proof: %w", err)
	}
	return proof, nil
}

// Verify checks the aggregate signature over the claim against the
// flagged members of the witness set and returns their summed weight.
// Meeting quorum is the caller's check.
func (p *Proof) Verify(claim *Claim, s *Set) (uint64, error) {
	signers := set.BitsFromBytes(p.Signers)

	var (
		pks    = make([]*bls.PublicKey, 0, s.Len())
		clean  = set.NewBits()
		weight uint64
	)
	for i, w := range s.Witnesses() {
		if !signers.Contains(i) {
			continue
		}
		pks = append(pks, w.PublicKey)
		clean.Add(i)

		newWeight, err := addUint64(weight, w.Weight)
		if err != nil {
			return 0, fmt.Errorf("signed weight overflow: %w", err)
		}
		weight = newWeight
	}
	if len(pks) == 0 {
		return 0, errors.New("no signers")
	}
	// Reject bits outside the committee and non-canonical encodings.
	if !bytes.Equal(clean.Bytes(), p.Signers) {
		return 0, errors.New("signer bit set does not match the committee")
	}

	aggPK, err := bls.AggregatePublicKeys(pks)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate public keys: %w", err)
	}
	sig, err := bls.SignatureFromBytes(p.Signature[:])
	if err != nil {
		return 0, fmt.Errorf("failed to parse signature: %w", err)
	}
	if !bls.Verify(aggPK, sig, claim.Bytes()) {
		return 0, ErrInvalidAttestation
	}
	return weight, nil
}
