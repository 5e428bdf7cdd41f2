// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/p2p"

	"github.com/luxfi/bridge/cache"
)

// Signed attestations stay valid as long as the signal exists, so the TTL
// only bounds memory.
const attestationTTL = 10 * time.Minute

// Notary answers attestation requests with signatures over claims whose
// signals it has observed in its registry view. Signatures for hot claims
// are cached; concurrent requests for one claim share a single signing.
type Notary struct {
	log      log.Logger
	signer   *Signer
	registry *Registry
	cache    *cache.TTLCache[ids.ID, []byte]
}

func NewNotary(logger log.Logger, signer *Signer, registry *Registry) *Notary {
	return &Notary{
		log:      logger,
		signer:   signer,
		registry: registry,
		cache:    cache.NewTTLCache[ids.ID, []byte](attestationTTL),
	}
}

// PublicKey returns the notary's verification key
func (n *Notary) PublicKey() *bls.PublicKey {
	return n.signer.PublicKey()
}

// Attest returns the notary's signature over the claim. Claims about
// signals the notary has not observed are refused, and the refusal is not
// cached so a later request can succeed once the signal arrives.
func (n *Notary) Attest(claim *Claim) ([]byte, error) {
	return n.cache.Get(claim.Hash(), func(ids.ID) ([]byte, error) {
		if !n.registry.Has(claim.ChainID, claim.Account, claim.Signal) {
			return nil, fmt.Errorf("signal not observed: %s", claim)
		}
		sig, err := n.signer.SignClaim(claim)
		if err != nil {
			return nil, fmt.Errorf("failed to sign claim: %w", err)
		}

		n.log.Debug("claim attested", log.Stringer("claim", claim))
		return bls.SignatureToBytes(sig), nil
	})
}

var _ p2p.Handler = (*Handler)(nil)

// Handler serves a notary's attestations over the p2p request protocol
type Handler struct {
	notary *Notary
}

func NewHandler(notary *Notary) *Handler {
	return &Handler{notary: notary}
}

// Gossip implements p2p.Handler. Attestation is request-response only.
func (h *Handler) Gossip(ctx context.Context, nodeID ids.NodeID, gossipBytes []byte) {
}

// Request implements p2p.Handler
func (h *Handler) Request(ctx context.Context, nodeID ids.NodeID, deadline time.Time, requestBytes []byte) ([]byte, *p2p.Error) {
	req, err := UnmarshalAttestRequest(requestBytes)
	if err != nil {
		return nil, &p2p.Error{Code: 400, Message: err.Error()}
	}
	claim, err := ParseClaim(req.Claim)
	if err != nil {
		return nil, &p2p.Error{Code: 400, Message: err.Error()}
	}

	sigBytes, err := h.notary.Attest(claim)
	if err != nil {
		return nil, &p2p.Error{Code: 500, Message: err.Error()}
	}
	return MarshalAttestResponse(sigBytes), nil
}
