// Copyright 2025 zkSL Labs
//
// zkslctl - operator tooling: keypair generation, PDA derivation, and
// offline commitment digests.

package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/zksllabs/zksealevel-anchor/pkg/anchorprog"
	"github.com/zksllabs/zksealevel-anchor/pkg/commitment"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zkslctl",
		Short: "Operator tooling for the zkSealevel anchor core",
	}
	rootCmd.AddCommand(keygenCmd(), pdaCmd(), dsCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func keygenCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an aggregator keypair file",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			envelope, err := json.MarshalIndent(map[string]string{
				"kind":       "ed25519",
				"secret_key": hex.EncodeToString(priv),
			}, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, envelope, 0o600); err != nil {
				return fmt.Errorf("write keypair: %w", err)
			}
			fmt.Printf("wrote %s\npubkey: %s\n", outPath, solana.PublicKeyFromBytes(pub))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "aggregator.json", "output path")
	return cmd
}

func pdaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pda <program-id>",
		Short: "Print the derived program addresses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			programID, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid program id: %w", err)
			}
			cfg, _, err := anchorprog.ConfigPDA(programID)
			if err != nil {
				return err
			}
			agg, _, err := anchorprog.AggregatorStatePDA(programID)
			if err != nil {
				return err
			}
			rng, _, err := anchorprog.RangeStatePDA(programID)
			if err != nil {
				return err
			}
			fmt.Printf("configuration:    %s\n", cfg)
			fmt.Printf("aggregator state: %s\n", agg)
			fmt.Printf("range state:      %s\n", rng)
			return nil
		},
	}
}

func dsCmd() *cobra.Command {
	var chainID, startSlot, endSlot, seq uint64
	var proofHashHex string
	cmd := &cobra.Command{
		Use:   "ds <program-id>",
		Short: "Compute a commitment digest offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			programID, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid program id: %w", err)
			}
			var proofHash [32]byte
			raw, err := hex.DecodeString(proofHashHex)
			if err != nil || len(raw) != 32 {
				return fmt.Errorf("proof-hash must be 64 hex characters")
			}
			copy(proofHash[:], raw)

			digest, err := commitment.Digest(commitment.Params{
				ChainID:   chainID,
				ProgramID: programID,
				ProofHash: proofHash,
				StartSlot: startSlot,
				EndSlot:   endSlot,
				Seq:       seq,
			})
			if err != nil {
				return err
			}
			fmt.Printf("ds_hash: %s\n", hex.EncodeToString(digest[:]))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain-id", 1, "chain id")
	cmd.Flags().Uint64Var(&startSlot, "start-slot", 0, "start slot")
	cmd.Flags().Uint64Var(&endSlot, "end-slot", 0, "end slot")
	cmd.Flags().Uint64Var(&seq, "seq", 0, "sequence number")
	cmd.Flags().StringVar(&proofHashHex, "proof-hash", "", "proof hash (64 hex chars)")
	return cmd
}
