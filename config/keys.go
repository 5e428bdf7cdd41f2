// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"

	// Top-level configuration keys
	RelayerAddressKey       = "relayer-address"
	RelayIntervalSecondsKey = "relay-interval-seconds"
	ProofTimeoutSecondsKey  = "proof-timeout-seconds"
	QuorumNumeratorKey      = "quorum-numerator"
	QuorumDenominatorKey    = "quorum-denominator"
	WitnessesKey            = "witnesses"
)

const (
	defaultRelayIntervalSeconds = 5
	defaultProofTimeoutSeconds  = 30
	defaultQuorumNumerator      = 67
	defaultQuorumDenominator    = 100
	defaultWitnesses            = 4
)
