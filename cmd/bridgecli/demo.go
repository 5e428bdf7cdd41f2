// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/config"
	"github.com/luxfi/bridge/custody"
	"github.com/luxfi/bridge/ledger"
	"github.com/luxfi/bridge/relayer"
	"github.com/luxfi/bridge/witness"
)

const demoGasLimit = 200_000

type demoChain struct {
	name    string
	chainID ids.ID
	bridge  *bridge.Bridge
	ledger  *ledger.Ledger
	vault   *custody.Vault
	service *witness.Service
}

func buildDemoChain(cfg config.ChainConfig, registry *witness.Registry) (*demoChain, error) {
	chainID, err := cfg.GetChainID()
	if err != nil {
		return nil, err
	}

	l := ledger.New()
	vault := custody.NewVault(cfg.GetVaultAddress(), l)
	service := witness.NewService(log.NoLog{}, chainID, registry)

	b, err := bridge.New(bridge.Config{
		ChainID: chainID,
		Address: cfg.GetBridgeAddress(),
		Admin:   cfg.GetAdminAddress(),
		DB:      dbm.NewMemDB(),
		Custody: vault,
		Signals: service,
		Ledger:  l,
	})
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", cfg.Name, err)
	}

	return &demoChain{
		name:    cfg.Name,
		chainID: chainID,
		bridge:  b,
		ledger:  l,
		vault:   vault,
		service: service,
	}, nil
}

// demoRecipient receives the destination invocation
type demoRecipient struct {
	fail bool
}

func (r *demoRecipient) OnMessageInvocation(ctx bridge.CallContext, data []byte, value *uint256.Int, gas uint64) error {
	if r.fail {
		return errors.New("recipient rejects the call")
	}
	fmt.Printf("  recipient executed payload %q with value %s (gas %d, origin %s)\n",
		data, value, gas, ctx.SrcChainID)
	return nil
}

// runDemo wires two in-process chains watched by one witness committee
// and pushes a message through its full lifecycle
func runDemo(cfg config.Config, value, fee uint64, fail bool) error {
	ctx := context.Background()

	registry := witness.NewRegistry()
	prover := witness.NewLocalProver()

	members := make([]*witness.Witness, cfg.Witnesses)
	for i := range members {
		signer, err := witness.GenerateSigner()
		if err != nil {
			return fmt.Errorf("failed to generate witness key: %w", err)
		}
		members[i] = witness.NewWitness(signer.PublicKey(), 1, ids.NodeID{byte(i + 1)})
		prover.AddNotary(witness.NewNotary(log.NoLog{}, signer, registry))
	}
	ws, err := witness.NewSet(members, cfg.QuorumNumerator, cfg.QuorumDenominator)
	if err != nil {
		return fmt.Errorf("failed to build witness set: %w", err)
	}

	src, err := buildDemoChain(cfg.Chains[0], registry)
	if err != nil {
		return err
	}
	dst, err := buildDemoChain(cfg.Chains[1], registry)
	if err != nil {
		return err
	}
	for _, chain := range []*demoChain{src, dst} {
		chain.service.RegisterSet(src.chainID, ws)
		chain.service.RegisterSet(dst.chainID, ws)
	}
	prover.RegisterSet(src.chainID, ws)
	prover.RegisterSet(dst.chainID, ws)
	src.bridge.RegisterChain(dst.chainID, dst.bridge.Address())
	dst.bridge.RegisterChain(src.chainID, src.bridge.Address())

	fmt.Printf("Chains:\n")
	fmt.Printf("  %s: chain %s, bridge %s, %d witnesses at quorum %d/%d\n",
		src.name, src.chainID, src.bridge.Address(), cfg.Witnesses, cfg.QuorumNumerator, cfg.QuorumDenominator)
	fmt.Printf("  %s: chain %s, bridge %s\n", dst.name, dst.chainID, dst.bridge.Address())

	var (
		sender   = common.Address{0xa1}
		receiver = common.Address{0xa2}
		target   = common.Address{0xa3}
		funds    = common.Address{0xa4}
	)
	total := new(uint256.Int).AddUint64(uint256.NewInt(value), fee)
	if err := src.ledger.Mint(sender, total); err != nil {
		return err
	}
	if err := dst.ledger.Mint(funds, uint256.NewInt(cfg.Chains[1].Liquidity)); err != nil {
		return err
	}
	if err := dst.vault.Lock(funds, uint256.NewInt(cfg.Chains[1].Liquidity)); err != nil {
		return fmt.Errorf("failed to fund destination vault: %w", err)
	}

	dst.bridge.Register(target, &demoRecipient{fail: fail})

	r := relayer.New(log.NoLog{}, relayer.Config{
		Caller:       cfg.GetRelayerAddress(),
		ProofTimeout: cfg.ProofTimeout(),
	}, prover, prometheus.NewRegistry())
	r.AddBridge(src.bridge)
	r.AddBridge(dst.bridge)

	fmt.Printf("\nSending %d (+%d fee) from %s on %s to %s on %s\n",
		value, fee, sender, src.name, target, dst.name)
	msgHash, m, err := src.bridge.SendMessage(sender, total, &bridge.Message{
		Fee:         uint256.NewInt(fee),
		GasLimit:    demoGasLimit,
		DestChainID: dst.chainID,
		SrcOwner:    sender,
		DestOwner:   receiver,
		To:          target,
		Value:       uint256.NewInt(value),
		Data:        []byte("hello from " + src.name),
	})
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	fmt.Printf("  message %d sent, hash %s\n", m.ID, msgHash)
	fmt.Printf("  escrowed on %s: %s\n", src.name, src.vault.Locked())

	fmt.Printf("\nRelaying with witness attestation\n")
	if _, err := r.RelayPending(ctx, src.chainID); err != nil {
		return fmt.Errorf("relay failed: %w", err)
	}
	status, err := dst.bridge.MessageStatus(msgHash)
	if err != nil {
		return err
	}
	fmt.Printf("  delivery status on %s: %s\n", dst.name, status)
	fmt.Printf("  relayer fee balance: %s\n", dst.ledger.BalanceOf(cfg.GetRelayerAddress()))

	if !fail {
		fmt.Printf("  target balance on %s: %s\n", dst.name, dst.ledger.BalanceOf(target))
		return nil
	}

	fmt.Printf("\nGiving up delivery\n")
	if err := dst.bridge.RetryMessage(receiver, demoGasLimit, m, true); err != nil {
		return fmt.Errorf("final retry failed: %w", err)
	}
	status, err = dst.bridge.MessageStatus(msgHash)
	if err != nil {
		return err
	}
	fmt.Printf("  delivery status on %s: %s\n", dst.name, status)

	fmt.Printf("\nRecalling on %s\n", src.name)
	proof, err := prover.Prove(ctx, &witness.Claim{
		ChainID: dst.chainID,
		Account: dst.bridge.Address(),
		Signal:  bridge.FailureSignal(msgHash),
	})
	if err != nil {
		return fmt.Errorf("failed to prove the failure: %w", err)
	}
	if err := src.bridge.RecallMessage(m, proof.Bytes()); err != nil {
		return fmt.Errorf("recall failed: %w", err)
	}
	fmt.Printf("  sender balance restored to %s (fee %d forfeited)\n", src.ledger.BalanceOf(sender), fee)
	fmt.Printf("  escrow remaining on %s: %s\n", src.name, src.vault.Locked())
	return nil
}
