// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"fmt"

	"github.com/luxfi/crypto/bls"
)

// Signer holds a witness's BLS key
type Signer struct {
	sk *bls.SecretKey
	pk *bls.PublicKey
}

// NewSigner wraps an existing secret key
func NewSigner(sk *bls.SecretKey) *Signer {
	return &Signer{
		sk: sk,
		pk: sk.PublicKey(),
	}
}

// GenerateSigner creates a signer with a fresh key
func GenerateSigner() (*Signer, error) {
	sk, err := bls.NewSecretKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewSigner(sk), nil
}

// PublicKey returns the verification key
func (s *Signer) PublicKey() *bls.PublicKey {
	return s.pk
}

// SignClaim signs the canonical claim encoding
func (s *Signer) SignClaim(claim *Claim) (*bls.Signature, error) {
	return s.sk.Sign(claim.Bytes())
}
