// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"encoding/binary"
	"fmt"
)

// AttestHandlerID is the p2p protocol id for attestation requests
const AttestHandlerID = 0x42524447

// AttestRequest asks a witness to sign a claim
type AttestRequest struct {
	Claim []byte
}

// AttestResponse carries the witness's signature over the claim
type AttestResponse struct {
	Signature []byte
}

// MarshalAttestRequest encodes a request as claimLen(4) + claim
func MarshalAttestRequest(req *AttestRequest) []byte {
	buf := make([]byte, 4+len(req.Claim))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(req.Claim)))
	copy(buf[4:], req.Claim)
	return buf
}

// UnmarshalAttestRequest decodes a request
func UnmarshalAttestRequest(data []byte) (*AttestRequest, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("request too short: %d", len(data))
	}
	claimLen := binary.BigEndian.Uint32(data[0:4])
	if uint64(len(data)) < 4+uint64(claimLen) {
		return nil, fmt.Errorf("request too short for claim: %d", len(data))
	}
	return &AttestRequest{
		Claim: data[4 : 4+claimLen],
	}, nil
}

// MarshalAttestResponse encodes a response as sigLen(4) + sig
func MarshalAttestResponse(signature []byte) []byte {
	buf := make([]byte, 4+len(signature))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(signature)))
	copy(buf[4:], signature)
	return buf
}

// UnmarshalAttestResponse decodes a response
func UnmarshalAttestResponse(data []byte) (*AttestResponse, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("response too short: %d", len(data))
	}
	sigLen := binary.BigEndian.Uint32(data[0:4])
	if uint64(len(data)) < 4+uint64(sigLen) {
		return nil, fmt.Errorf("response too short for signature: %d", len(data))
	}
	return &AttestResponse{
		Signature: data[4 : 4+sigLen],
	}, nil
}
