// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"fmt"
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// Registry is the recorded-signal log, keyed by chain. A bridge records
// signals under its own chain; notaries consult their registry view of a
// chain before attesting claims about it.
type Registry struct {
	mu      sync.RWMutex
	signals map[ids.ID]map[signalKey]struct{}
}

type signalKey struct {
	account common.Address
	signal  ids.ID
}

func NewRegistry() *Registry {
	return &Registry{
		signals: make(map[ids.ID]map[signalKey]struct{}),
	}
}

// Record notes that the account recorded the signal on the chain
func (r *Registry) Record(chainID ids.ID, account common.Address, signal ids.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chain, ok := r.signals[chainID]
	if !ok {
		chain = make(map[signalKey]struct{})
		r.signals[chainID] = chain
	}
	chain[signalKey{account: account, signal: signal}] = struct{}{}
}

// Has reports whether the signal was recorded
func (r *Registry) Has(chainID ids.ID, account common.Address, signal ids.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.signals[chainID][signalKey{account: account, signal: signal}]
	return ok
}

// Service is one chain's signal surface. Recording and lookup touch only
// the local chain's slot of the registry; inclusion verification checks
// an aggregated witness proof for a foreign chain's signal.
type Service struct {
	log      log.Logger
	chainID  ids.ID
	registry *Registry

	mu   sync.RWMutex
	sets map[ids.ID]*Set
}

// NewService creates the signal service for one chain
func NewService(logger log.Logger, chainID ids.ID, registry *Registry) *Service {
	return &Service{
		log:      logger,
		chainID:  chainID,
		registry: registry,
		sets:     make(map[ids.ID]*Set),
	}
}

// RegisterSet installs the witness committee attesting a chain's signals
func (s *Service) RegisterSet(chainID ids.ID, set *Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[chainID] = set
}

// RecordSignal durably notes the signal for the account on this chain
func (s *Service) RecordSignal(account common.Address, signal ids.ID) error {
	s.registry.Record(s.chainID, account, signal)
	s.log.Debug("signal recorded",
		log.Stringer("account", account),
		log.Stringer("signal", signal),
	)
	return nil
}

// HasSignal reports whether the signal was recorded on this chain
func (s *Service) HasSignal(account common.Address, signal ids.ID) bool {
	return s.registry.Has(s.chainID, account, signal)
}

// VerifyInclusion checks that the proof attests, at quorum weight, that
// the account recorded the signal on the given chain
func (s *Service) VerifyInclusion(chainID ids.ID, account common.Address, signal ids.ID, proofBytes []byte) error {
	s.mu.RLock()
	set, ok := s.sets[chainID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no witness set for chain %s", chainID)
	}

	proof, err := ParseProof(proofBytes)
	if err != nil {
		return err
	}

	claim := &Claim{
		ChainID: chainID,
		Account: account,
		Signal:  signal,
	}
	weight, err := proof.Verify(claim, set)
	if err != nil {
		return err
	}
	if !set.MeetsQuorum(weight) {
		return fmt.Errorf("%w: %d of %d", ErrInsufficientWeight, weight, set.TotalWeight())
	}

	s.log.Debug("inclusion verified",
		log.Stringer("claim", claim),
		log.Uint64("weight", weight),
	)
	return nil
}
