// Copyright 2025 zkSL Labs
//
// Anchor Program Binding - discriminators, program-derived addresses,
// and well-known program ids for the on-chain verifier. Shared by the
// submission orchestrator and the indexer; both sides must derive
// byte-identical values.

package anchorprog

import (
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/zksllabs/zksealevel-anchor/pkg/canonical"
)

// Well-known program and sysvar addresses.
var (
	ComputeBudgetProgramID    = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	Ed25519SigVerifyProgramID = solana.MustPublicKeyFromBase58("Ed25519SigVerify111111111111111111111111111")
	SysvarInstructionsPubkey  = solana.MustPublicKeyFromBase58("Sysvar1nstructions1111111111111111111111111")
	SystemProgramID           = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
)

// GlobalDiscriminator returns the 8-byte instruction discriminator:
// sha256("global:{name}")[..8].
func GlobalDiscriminator(name string) []byte {
	hash := sha256.Sum256(fmt.Appendf(nil, "global:%s", name))
	return hash[:8]
}

// AccountDiscriminator returns the 8-byte account discriminator:
// sha256("account:{name}")[..8].
func AccountDiscriminator(name string) []byte {
	hash := sha256.Sum256(fmt.Appendf(nil, "account:%s", name))
	return hash[:8]
}

// AnchorProofDiscriminator is the discriminator of the anchor_proof call.
func AnchorProofDiscriminator() []byte {
	return GlobalDiscriminator("anchor_proof")
}

// PDA seed literals.
var (
	seedNamespace  = []byte("zksl")
	seedConfig     = []byte("config")
	seedAggregator = []byte("aggregator")
	seedRange      = []byte("range")
	seedProof      = []byte("proof")
	seedValidator  = []byte("validator")
)

// ConfigPDA derives the configuration record address.
func ConfigPDA(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return findPDA(programID, seedNamespace, seedConfig)
}

// AggregatorStatePDA derives the aggregator-state record address.
func AggregatorStatePDA(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return findPDA(programID, seedNamespace, seedAggregator)
}

// RangeStatePDA derives the range-state record address.
func RangeStatePDA(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return findPDA(programID, seedNamespace, seedRange)
}

// ProofRecordPDA derives the proof record address for (proof_hash, seq).
func ProofRecordPDA(programID solana.PublicKey, proofHash [32]byte, seq uint64) (solana.PublicKey, uint8, error) {
	return findPDA(programID, seedNamespace, seedProof, proofHash[:], canonical.U64LE(seq))
}

// ValidatorRecordPDA derives the validator record address for a pubkey.
func ValidatorRecordPDA(programID solana.PublicKey, validator solana.PublicKey) (solana.PublicKey, uint8, error) {
	return findPDA(programID, seedNamespace, seedValidator, validator.Bytes())
}

func findPDA(programID solana.PublicKey, seeds ...[]byte) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive program address: %w", err)
	}
	return pda, bump, nil
}
