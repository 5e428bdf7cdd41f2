// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewConfig builds and validates the configuration from a viper instance
func NewConfig(v *viper.Viper) (Config, error) {
	cfg, err := BuildConfig(v)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// BuildViper binds the flag set and, when a config file is given, reads
// it. All config keys may be provided via config file, environment
// variable or flag.
func BuildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	// Map flag names to env var names. Flags are capitalized, and hyphens
	// are replaced with underscores.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if v.IsSet(ConfigFileKey) && v.GetString(ConfigFileKey) != "" {
		v.SetConfigFile(v.GetString(ConfigFileKey))
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func SetDefaultConfigValues(v *viper.Viper) {
	v.SetDefault(RelayIntervalSecondsKey, defaultRelayIntervalSeconds)
	v.SetDefault(ProofTimeoutSecondsKey, defaultProofTimeoutSeconds)
	v.SetDefault(QuorumNumeratorKey, defaultQuorumNumerator)
	v.SetDefault(QuorumDenominatorKey, defaultQuorumDenominator)
	v.SetDefault(WitnessesKey, defaultWitnesses)
}

// BuildConfig constructs the configuration using viper. The following
// precedence order is used. Each item takes precedence over the item
// below it:
//  1. Flags
//  2. Config file
//  3. Defaults
func BuildConfig(v *viper.Viper) (Config, error) {
	SetDefaultConfigValues(v)

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal viper config: %w", err)
	}
	return cfg, nil
}
