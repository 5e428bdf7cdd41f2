// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bridgecli",
	Short: "Cross-chain bridge message tooling",
	Long: `bridgecli works with cross-chain bridge messages: computing message
hashes and failure signals, decoding encoded messages, and running an
embedded two-chain deployment end to end.`,
	Version: fmt.Sprintf("%s (built %s)", version, buildDate),
}

func init() {
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(demoCmd)
}

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Compute a message hash and failure signal",
	Long:  `Compute the content hash of a bridge message and the failure signal its recall would prove.`,
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := messageFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid message: %v\n", err)
			os.Exit(1)
		}

		msgHash := msg.Hash()
		fmt.Printf("Message:\n")
		fmt.Printf("  Hash: %s\n", msgHash)
		fmt.Printf("  Failure signal: %s\n", bridge.FailureSignal(msgHash))
		fmt.Printf("  Encoded: %x\n", msg.Bytes())
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode an encoded bridge message",
	Long:  `Decode a hex encoded bridge message and print its fields.`,
	Run: func(cmd *cobra.Command, args []string) {
		dataHex, _ := cmd.Flags().GetString("data")

		raw, err := hex.DecodeString(strings.TrimPrefix(dataHex, "0x"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
			os.Exit(1)
		}
		msg, err := bridge.ParseMessage(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid message: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Message:\n")
		fmt.Printf("  ID: %d\n", msg.ID)
		fmt.Printf("  From: %s\n", msg.From)
		fmt.Printf("  Source chain: %s\n", msg.SrcChainID)
		fmt.Printf("  Destination chain: %s\n", msg.DestChainID)
		fmt.Printf("  Source owner: %s\n", msg.SrcOwner)
		fmt.Printf("  Destination owner: %s\n", msg.DestOwner)
		fmt.Printf("  To: %s\n", msg.To)
		fmt.Printf("  Value: %s\n", msg.Value)
		fmt.Printf("  Fee: %s\n", msg.Fee)
		fmt.Printf("  Gas limit: %d\n", msg.GasLimit)
		fmt.Printf("  Data: %x\n", msg.Data)
		fmt.Printf("  Hash: %s\n", msg.Hash())
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an embedded two-chain bridge deployment",
	Long: `Run a complete bridge round trip in process: two chains, a witness
committee attesting their signals, and a relayer delivering messages.
With --fail the destination invocation fails and the message is driven
through retry, failure and recall.`,
	Run: func(cmd *cobra.Command, args []string) {
		v, err := config.BuildViper(cmd.Flags())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
		cfg, err := config.NewConfig(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		value, _ := cmd.Flags().GetUint64("value")
		fee, _ := cmd.Flags().GetUint64("fee")
		fail, _ := cmd.Flags().GetBool("fail")

		if err := runDemo(cfg, value, fee, fail); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	// Hash command flags
	hashCmd.Flags().Uint64("id", 0, "Message id")
	hashCmd.Flags().String("src-chain", "", "Source chain id (hex)")
	hashCmd.Flags().String("dest-chain", "", "Destination chain id (hex)")
	hashCmd.Flags().String("from", "", "Sender address")
	hashCmd.Flags().String("src-owner", "", "Source owner address")
	hashCmd.Flags().String("dest-owner", "", "Destination owner address")
	hashCmd.Flags().String("to", "", "Target address")
	hashCmd.Flags().Uint64("value", 0, "Transferred value")
	hashCmd.Flags().Uint64("fee", 0, "Relayer fee")
	hashCmd.Flags().Uint64("gas-limit", 0, "Invocation gas limit")
	hashCmd.Flags().String("data", "", "Call payload (text)")
	hashCmd.Flags().String("data-hex", "", "Call payload (hex)")

	// Decode command flags
	decodeCmd.Flags().StringP("data", "d", "", "Hex encoded message")
	decodeCmd.MarkFlagRequired("data")

	// Demo command flags
	demoCmd.Flags().String(config.ConfigFileKey, "", "JSON config file describing the deployment")
	demoCmd.Flags().Uint64("value", 100, "Value to transfer")
	demoCmd.Flags().Uint64("fee", 5, "Relayer fee")
	demoCmd.Flags().Bool("fail", false, "Make the destination invocation fail and recall the message")
}

func messageFromFlags(cmd *cobra.Command) (*bridge.Message, error) {
	flags := cmd.Flags()

	id, _ := flags.GetUint64("id")
	value, _ := flags.GetUint64("value")
	fee, _ := flags.GetUint64("fee")
	gasLimit, _ := flags.GetUint64("gas-limit")

	srcChainID, err := parseIDFlag(flags, "src-chain")
	if err != nil {
		return nil, err
	}
	destChainID, err := parseIDFlag(flags, "dest-chain")
	if err != nil {
		return nil, err
	}
	from, err := parseAddressFlag(flags, "from")
	if err != nil {
		return nil, err
	}
	srcOwner, err := parseAddressFlag(flags, "src-owner")
	if err != nil {
		return nil, err
	}
	destOwner, err := parseAddressFlag(flags, "dest-owner")
	if err != nil {
		return nil, err
	}
	to, err := parseAddressFlag(flags, "to")
	if err != nil {
		return nil, err
	}

	dataText, _ := flags.GetString("data")
	dataHex, _ := flags.GetString("data-hex")
	var data []byte
	switch {
	case dataText != "" && dataHex != "":
		return nil, errors.New("use either --data or --data-hex, not both")
	case dataHex != "":
		data, err = hex.DecodeString(strings.TrimPrefix(dataHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid payload hex: %w", err)
		}
	case dataText != "":
		data = []byte(dataText)
	}

	msg := &bridge.Message{
		ID:          id,
		Fee:         uint256.NewInt(fee),
		GasLimit:    gasLimit,
		From:        from,
		SrcChainID:  srcChainID,
		DestChainID: destChainID,
		SrcOwner:    srcOwner,
		DestOwner:   destOwner,
		To:          to,
		Value:       uint256.NewInt(value),
		Data:        data,
	}
	if err := msg.Verify(); err != nil {
		return nil, err
	}
	return msg, nil
}

func parseIDFlag(flags *pflag.FlagSet, name string) (ids.ID, error) {
	s, _ := flags.GetString(name)
	if s == "" {
		return ids.ID{}, nil
	}
	id, err := config.ParseID(s)
	if err != nil {
		return ids.ID{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

func parseAddressFlag(flags *pflag.FlagSet, name string) (common.Address, error) {
	s, _ := flags.GetString(name)
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s: not a hex address: %q", name, s)
	}
	return common.HexToAddress(s), nil
}
