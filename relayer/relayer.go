// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package relayer drives messages from source outboxes to destination
// bridges. It collects inclusion proofs from the witness layer and
// submits deliveries, earning the message fees.
package relayer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	dbm "github.com/cometbft/cometbft-db"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/witness"
)

const defaultProofTimeout = 30 * time.Second

// Config configures a relayer
type Config struct {
	// Caller is the account deliveries are submitted as; it receives the
	// message fees
	Caller common.Address

	// ProofTimeout bounds proof collection per message
	ProofTimeout time.Duration

	// DB persists per-chain delivery checkpoints. Nil keeps them in
	// memory only.
	DB dbm.DB
}

// Relayer moves messages between the bridges it knows about
type Relayer struct {
	log     log.Logger
	cfg     Config
	prover  witness.Prover
	metrics *Metrics

	mu          sync.RWMutex
	bridges     map[ids.ID]*bridge.Bridge
	checkpoints map[ids.ID]*checkpointStore
}

func New(logger log.Logger, cfg Config, prover witness.Prover, registerer prometheus.Registerer) *Relayer {
	if cfg.ProofTimeout <= 0 {
		cfg.ProofTimeout = defaultProofTimeout
	}
	if cfg.DB == nil {
		cfg.DB = dbm.NewMemDB()
	}
	return &Relayer{
		log:         logger,
		cfg:         cfg,
		prover:      prover,
		metrics:     NewMetrics(registerer),
		bridges:     make(map[ids.ID]*bridge.Bridge),
		checkpoints: make(map[ids.ID]*checkpointStore),
	}
}

// AddBridge registers a chain endpoint
func (r *Relayer) AddBridge(b *bridge.Bridge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bridges[b.ChainID()] = b
}

func (r *Relayer) bridgeFor(chainID ids.ID) (*bridge.Bridge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bridges[chainID]
	return b, ok
}

func (r *Relayer) checkpointFor(chainID ids.ID) (*checkpointStore, error) {
	r.mu.RLock()
	cp, ok := r.checkpoints[chainID]
	r.mu.RUnlock()
	if ok {
		return cp, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cp, ok := r.checkpoints[chainID]; ok {
		return cp, nil
	}
	cp, err := newCheckpointStore(r.cfg.DB, chainID)
	if err != nil {
		return nil, err
	}
	r.checkpoints[chainID] = cp
	return cp, nil
}

// Checkpoint returns how many messages of the chain's send sequence have
// been resolved contiguously from the start
func (r *Relayer) Checkpoint(chainID ids.ID) (uint64, error) {
	cp, err := r.checkpointFor(chainID)
	if err != nil {
		return 0, err
	}
	return cp.checkpoint(), nil
}

// RelayPending drains the chain's outbox and delivers each message to
// its destination. Messages that fail stay failed here; senders recover
// them through retry or recall on the bridges themselves.
func (r *Relayer) RelayPending(ctx context.Context, chainID ids.ID) (int, error) {
	src, ok := r.bridgeFor(chainID)
	if !ok {
		return 0, fmt.Errorf("unknown chain %s", chainID)
	}
	cp, err := r.checkpointFor(chainID)
	if err != nil {
		return 0, err
	}

	msgs := src.PendingMessages()
	src.ClearPendingMessages()
	if len(msgs) == 0 {
		return 0, nil
	}

	var delivered, failed int
	for _, msg := range msgs {
		if err := r.deliver(ctx, src, msg); err != nil {
			failed++
			r.log.Info("failed to relay message",
				log.Stringer("msgHash", msg.Hash()),
				log.Stringer("destChainID", msg.DestChainID),
				log.Err(err),
			)
			continue
		}
		delivered++
		cp.stage(msg.ID)
	}

	if err := cp.flush(); err != nil {
		r.log.Warn("failed to persist checkpoint",
			log.Stringer("chainID", chainID),
			log.Err(err),
		)
	}

	if failed > 0 {
		return delivered, fmt.Errorf("failed to relay %d of %d messages", failed, len(msgs))
	}
	return delivered, nil
}

func (r *Relayer) deliver(ctx context.Context, src *bridge.Bridge, msg *bridge.Message) error {
	srcLabel := msg.SrcChainID.String()
	destLabel := msg.DestChainID.String()

	dest, ok := r.bridgeFor(msg.DestChainID)
	if !ok {
		r.metrics.failedMessages.WithLabelValues(srcLabel, destLabel, "unknown_chain").Inc()
		return fmt.Errorf("unknown destination chain %s", msg.DestChainID)
	}

	// Zero-gas messages are deliverable only by their destination owner.
	if msg.GasLimit == 0 && r.cfg.Caller != msg.DestOwner {
		r.metrics.skippedMessages.WithLabelValues(srcLabel, destLabel).Inc()
		r.log.Debug("skipping owner-only message", log.Stringer("msgHash", msg.Hash()))
		return nil
	}

	msgHash := msg.Hash()
	claim := &witness.Claim{
		ChainID: msg.SrcChainID,
		Account: src.Address(),
		Signal:  msgHash,
	}

	start := time.Now()
	proof, err := r.collectProof(ctx, claim)
	if err != nil {
		r.metrics.failedMessages.WithLabelValues(srcLabel, destLabel, "no_proof").Inc()
		return fmt.Errorf("failed to collect proof: %w", err)
	}
	r.metrics.proofLatencyMS.WithLabelValues(srcLabel, destLabel).
		Set(float64(time.Since(start).Milliseconds()))

	err = dest.ProcessMessage(r.cfg.Caller, msg.GasLimit, msg, proof.Bytes())
	switch {
	case errors.Is(err, bridge.ErrStatusMismatch):
		// another relayer delivered it first
		r.metrics.skippedMessages.WithLabelValues(srcLabel, destLabel).Inc()
		r.log.Debug("message already delivered", log.Stringer("msgHash", msgHash))
		return nil
	case err != nil:
		r.metrics.failedMessages.WithLabelValues(srcLabel, destLabel, "process_failed").Inc()
		return fmt.Errorf("failed to process message: %w", err)
	}

	r.metrics.relayedMessages.WithLabelValues(srcLabel, destLabel).Inc()
	r.log.Info("message relayed",
		log.Stringer("msgHash", msgHash),
		log.Stringer("destChainID", msg.DestChainID),
	)
	return nil
}

// collectProof retries proof collection with exponential backoff until it
// succeeds or the configured timeout elapses
func (r *Relayer) collectProof(ctx context.Context, claim *witness.Claim) (*witness.Proof, error) {
	var proof *witness.Proof
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		p, err := r.prover.Prove(ctx, claim)
		if err != nil {
			return err
		}
		proof = p
		return nil
	}
	expBackOff := backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(r.cfg.ProofTimeout),
	)
	notify := func(err error, _ time.Duration) {
		r.log.Debug("proof collection failed, retrying",
			log.Stringer("claim", claim),
			log.Err(err),
		)
	}
	if err := backoff.RetryNotify(operation, expBackOff, notify); err != nil {
		return nil, err
	}
	return proof, nil
}

// Run relays pending messages from every known chain on the interval
// until the context ends
func (r *Relayer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.mu.RLock()
			chainIDs := make([]ids.ID, 0, len(r.bridges))
			for chainID := range r.bridges {
				chainIDs = append(chainIDs, chainID)
			}
			r.mu.RUnlock()

			for _, chainID := range chainIDs {
				if _, err := r.RelayPending(ctx, chainID); err != nil {
					r.log.Debug("relay pass incomplete",
						log.Stringer("chainID", chainID),
						log.Err(err),
					)
				}
			}
		}
	}
}
