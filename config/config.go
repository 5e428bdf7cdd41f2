// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads and validates the bridge deployment description
// shared by the command line tools. Values may come from a JSON config
// file, environment variables or command line flags.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

// ChainConfig describes one chain participating in the bridge
type ChainConfig struct {
	Name          string `mapstructure:"name" json:"name"`
	ChainID       string `mapstructure:"chain-id" json:"chain-id"`
	BridgeAddress string `mapstructure:"bridge-address" json:"bridge-address"`
	VaultAddress  string `mapstructure:"vault-address" json:"vault-address"`
	AdminAddress  string `mapstructure:"admin-address" json:"admin-address"`
	Liquidity     uint64 `mapstructure:"liquidity" json:"liquidity"`
}

// Config is the top-level tool configuration
type Config struct {
	RelayerAddress       string        `mapstructure:"relayer-address" json:"relayer-address"`
	RelayIntervalSeconds uint64        `mapstructure:"relay-interval-seconds" json:"relay-interval-seconds"`
	ProofTimeoutSeconds  uint64        `mapstructure:"proof-timeout-seconds" json:"proof-timeout-seconds"`
	QuorumNumerator      uint64        `mapstructure:"quorum-numerator" json:"quorum-numerator"`
	QuorumDenominator    uint64        `mapstructure:"quorum-denominator" json:"quorum-denominator"`
	Witnesses            int           `mapstructure:"witnesses" json:"witnesses"`
	Chains               []ChainConfig `mapstructure:"chains" json:"chains"`
}

// Default returns a complete two-chain configuration suitable for running
// an embedded deployment without a config file
func Default() Config {
	return Config{
		RelayerAddress:       "0x0000000000000000000000000000000000000c01",
		RelayIntervalSeconds: defaultRelayIntervalSeconds,
		ProofTimeoutSeconds:  defaultProofTimeoutSeconds,
		QuorumNumerator:      defaultQuorumNumerator,
		QuorumDenominator:    defaultQuorumDenominator,
		Witnesses:            defaultWitnesses,
		Chains: []ChainConfig{
			{
				Name:          "alpha",
				ChainID:       "0x0a",
				BridgeAddress: "0x0000000000000000000000000000000000000ba1",
				VaultAddress:  "0x0000000000000000000000000000000000000ea1",
				AdminAddress:  "0x0000000000000000000000000000000000000ad1",
				Liquidity:     1_000_000,
			},
			{
				Name:          "beta",
				ChainID:       "0x0b",
				BridgeAddress: "0x0000000000000000000000000000000000000ba2",
				VaultAddress:  "0x0000000000000000000000000000000000000ea2",
				AdminAddress:  "0x0000000000000000000000000000000000000ad2",
				Liquidity:     1_000_000,
			},
		},
	}
}

// Validate checks the configuration for completeness and consistency
func (c Config) Validate() error {
	if _, err := parseAddress(c.RelayerAddress); err != nil {
		return fmt.Errorf("invalid relayer address: %w", err)
	}
	if c.RelayIntervalSeconds == 0 {
		return errors.New("relay interval must be positive")
	}
	if c.ProofTimeoutSeconds == 0 {
		return errors.New("proof timeout must be positive")
	}
	if c.QuorumDenominator == 0 || c.QuorumNumerator == 0 || c.QuorumNumerator > c.QuorumDenominator {
		return fmt.Errorf("invalid quorum fraction %d/%d", c.QuorumNumerator, c.QuorumDenominator)
	}
	if c.Witnesses < 1 {
		return errors.New("at least one witness is required")
	}
	if len(c.Chains) < 2 {
		return errors.New("at least two chains are required")
	}

	seen := make(map[ids.ID]string, len(c.Chains))
	for _, chain := range c.Chains {
		if chain.Name == "" {
			return errors.New("chain name not set")
		}
		chainID, err := chain.GetChainID()
		if err != nil {
			return fmt.Errorf("chain %s: %w", chain.Name, err)
		}
		if other, ok := seen[chainID]; ok {
			return fmt.Errorf("chains %s and %s share chain id %s", other, chain.Name, chainID)
		}
		seen[chainID] = chain.Name

		if _, err := parseAddress(chain.BridgeAddress); err != nil {
			return fmt.Errorf("chain %s: invalid bridge address: %w", chain.Name, err)
		}
		if _, err := parseAddress(chain.VaultAddress); err != nil {
			return fmt.Errorf("chain %s: invalid vault address: %w", chain.Name, err)
		}
		if _, err := parseAddress(chain.AdminAddress); err != nil {
			return fmt.Errorf("chain %s: invalid admin address: %w", chain.Name, err)
		}
	}
	return nil
}

// RelayInterval returns the relayer poll interval
func (c Config) RelayInterval() time.Duration {
	return time.Duration(c.RelayIntervalSeconds) * time.Second
}

// ProofTimeout returns the per-message proof collection budget
func (c Config) ProofTimeout() time.Duration {
	return time.Duration(c.ProofTimeoutSeconds) * time.Second
}

// GetRelayerAddress returns the parsed relayer account
func (c Config) GetRelayerAddress() common.Address {
	addr, _ := parseAddress(c.RelayerAddress)
	return addr
}

// GetChainID returns the parsed chain id
func (c ChainConfig) GetChainID() (ids.ID, error) {
	return ParseID(c.ChainID)
}

// GetBridgeAddress returns the parsed bridge account
func (c ChainConfig) GetBridgeAddress() common.Address {
	addr, _ := parseAddress(c.BridgeAddress)
	return addr
}

// GetVaultAddress returns the parsed vault account
func (c ChainConfig) GetVaultAddress() common.Address {
	addr, _ := parseAddress(c.VaultAddress)
	return addr
}

// GetAdminAddress returns the parsed admin account
func (c ChainConfig) GetAdminAddress() common.Address {
	addr, _ := parseAddress(c.AdminAddress)
	return addr
}

// ParseID decodes a hex chain id, with or without a 0x prefix. Short
// values occupy the leading bytes of the id.
func ParseID(hexStr string) (ids.ID, error) {
	s := strings.TrimPrefix(hexStr, "0x")
	if s == "" {
		return ids.ID{}, errors.New("empty chain id")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ids.ID{}, err
	}
	if len(raw) > len(ids.ID{}) {
		return ids.ID{}, fmt.Errorf("chain id longer than %d bytes", len(ids.ID{}))
	}

	var id ids.ID
	copy(id[:], raw)
	if id == (ids.ID{}) {
		return ids.ID{}, errors.New("chain id must not be zero")
	}
	return id, nil
}

func parseAddress(hexStr string) (common.Address, error) {
	if !common.IsHexAddress(hexStr) {
		return common.Address{}, fmt.Errorf("not a hex address: %q", hexStr)
	}
	addr := common.HexToAddress(hexStr)
	if addr == (common.Address{}) {
		return common.Address{}, errors.New("address must not be zero")
	}
	return addr, nil
}
