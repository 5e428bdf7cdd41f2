// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"context"
	"errors"
	"testing"

	"github.com/luxfi/crypto/bls"
	"github.com/stretchr/testify/require"
)

func newAttestHandler(t *testing.T) (*attestResponseHandler, []*Signer) {
	ws, signers := newTestCommittee(t, 1, 1, 1)
	return &attestResponseHandler{
		claim:   testClaim(),
		ws:      ws,
		results: make(chan attestResult),
	}, signers
}

func attestation(t *testing.T, s *Signer, claim *Claim) []byte {
	sig, err := s.SignClaim(claim)
	require.NoError(t, err)
	return MarshalAttestResponse(bls.SignatureToBytes(sig))
}

func TestAttestResponseHandler(t *testing.T) {
	require := require.New(t)
	h, signers := newAttestHandler(t)

	go h.HandleResponse(context.Background(), testNodeID(0), attestation(t, signers[0], h.claim), nil)
	r := <-h.results
	require.NoError(r.err)
	require.Equal(0, r.index)
	require.EqualValues(1, r.weight)
	require.True(bls.Verify(signers[0].PublicKey(), r.sig, h.claim.Bytes()))
}

func TestAttestResponseHandlerUnknownNode(t *testing.T) {
	h, signers := newAttestHandler(t)

	go h.HandleResponse(context.Background(), testNodeID(9), attestation(t, signers[0], h.claim), nil)
	r := <-h.results
	require.ErrorContains(t, r.err, "unknown node")
}

func TestAttestResponseHandlerTransportError(t *testing.T) {
	h, _ := newAttestHandler(t)
	errTimeout := errors.New("request timed out")

	go h.HandleResponse(context.Background(), testNodeID(1), nil, errTimeout)
	r := <-h.results
	require.ErrorIs(t, r.err, errTimeout)
}

func TestAttestResponseHandlerMalformed(t *testing.T) {
	h, _ := newAttestHandler(t)

	go h.HandleResponse(context.Background(), testNodeID(1), []byte{0x01}, nil)
	r := <-h.results
	require.Error(t, r.err)
}

func TestAttestResponseHandlerWrongClaim(t *testing.T) {
	h, signers := newAttestHandler(t)

	// signature over a different claim fails verification
	other := testClaim()
	other.Signal = testID(9)

	go h.HandleResponse(context.Background(), testNodeID(1), attestation(t, signers[1], other), nil)
	r := <-h.results
	require.ErrorIs(t, r.err, ErrInvalidAttestation)
}
