// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"context"
	"fmt"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"
	"github.com/luxfi/p2p"
)

type attestResult struct {
	nodeID ids.NodeID
	index  int
	weight uint64
	sig    *bls.Signature
	err    error
}

// Collector gathers witness attestations over p2p and aggregates them
// into quorum proofs
type Collector struct {
	log    log.Logger
	client *p2p.Client
}

func NewCollector(logger log.Logger, client *p2p.Client) *Collector {
	return &Collector{
		log:    logger,
		client: client,
	}
}

// CollectProof requests attestations of the claim from every member of
// the witness set and blocks until the aggregate clears quorum, every
// member has answered, or the context ends. Only a quorum proof is
// returned; the signed weight is reported either way.
func (c *Collector) CollectProof(ctx context.Context, claim *Claim, ws *Set) (*Proof, uint64, error) {
	requestBytes := MarshalAttestRequest(&AttestRequest{Claim: claim.Bytes()})

	handler := &attestResponseHandler{
		claim:   claim,
		ws:      ws,
		results: make(chan attestResult),
	}
	if err := c.client.Request(ctx, set.Of(ws.NodeIDs()...), requestBytes, handler.HandleResponse); err != nil {
		return nil, 0, fmt.Errorf("failed to request attestations: %w", err)
	}

	var (
		signers = set.NewBits()
		sigs    = make([]*bls.Signature, 0, ws.Len())
		weight  uint64
	)
	for i := 0; i < ws.Len(); i++ {
		select {
		case <-ctx.Done():
			return nil, weight, ctx.Err()
		case r := <-handler.results:
			if r.err != nil {
				c.log.Debug("dropping attestation",
					log.Stringer("nodeID", r.nodeID),
					log.Err(r.err),
				)
				continue
			}
			if signers.Contains(r.index) {
				c.log.Debug("dropping duplicate attestation",
					log.Stringer("nodeID", r.nodeID),
				)
				continue
			}

			sigs = append(sigs, r.sig)
			signers.Add(r.index)
			// distinct member weights cannot overflow a validated set
			weight += r.weight

			if ws.MeetsQuorum(weight) {
				proof, err := buildProof(signers, sigs)
				if err != nil {
					return nil, weight, err
				}
				c.log.Info("proof collected",
					log.Stringer("claim", claim),
					log.Uint64("weight", weight),
				)
				return proof, weight, nil
			}
		}
	}
	return nil, weight, fmt.Errorf("%w: %d of %d", ErrInsufficientWeight, weight, ws.TotalWeight())
}

func buildProof(signers set.Bits, sigs []*bls.Signature) (*Proof, error) {
	agg, err := bls.AggregateSignatures(sigs)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate signatures: %w", err)
	}
	proof := &Proof{Signers: signers.Bytes()}
	copy(proof.Signature[:], bls.SignatureToBytes(agg))
	return proof, nil
}

type attestResponseHandler struct {
	claim   *Claim
	ws      *Set
	results chan attestResult
}

// HandleResponse is invoked once per requested node, with either its
// response or its failure
func (h *attestResponseHandler) HandleResponse(
	_ context.Context,
	nodeID ids.NodeID,
	responseBytes []byte,
	err error,
) {
	index, ok := h.ws.Index(nodeID)
	if !ok {
		h.results <- attestResult{nodeID: nodeID, err: fmt.Errorf("response from unknown node %s", nodeID)}
		return
	}
	if err != nil {
		h.results <- attestResult{nodeID: nodeID, err: err}
		return
	}

	resp, err := UnmarshalAttestResponse(responseBytes)
	if err != nil {
		h.results <- attestResult{nodeID: nodeID, err: err}
		return
	}
	sig, err := bls.SignatureFromBytes(resp.Signature)
	if err != nil {
		h.results <- attestResult{nodeID: nodeID, err: err}
		return
	}

	w := h.ws.Witnesses()[index]
	if !bls.Verify(w.PublicKey, sig, h.claim.Bytes()) {
		h.results <- attestResult{nodeID: nodeID, err: ErrInvalidAttestation}
		return
	}

	h.results <- attestResult{
		nodeID: nodeID,
		index:  index,
		weight: w.Weight,
		sig:    sig,
	}
}
