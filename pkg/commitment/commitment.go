// Copyright 2025 zkSL Labs
//
// Domain-Separated Commitment Builder - constructs the fixed-layout
// 110-byte commitment preimage and its BLAKE3 digest. The preimage is
// what the aggregator signs and what the on-chain verifier reconstructs;
// any length other than 110 bytes is a bug.

package commitment

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/zeebo/blake3"

	"github.com/zksllabs/zksealevel-anchor/pkg/canonical"
)

// DomainV1 is the ASCII domain-separation literal for the v1 layout.
// A future v2 layout must use a different literal to rule out
// cross-version replay.
const DomainV1 = "zKSL/anchor/v1"

// PreimageLen is the exact byte length of the commitment preimage:
// 14 (domain) + 8 (chain id) + 32 (program id) + 32 (proof hash) +
// 8 (start slot) + 8 (end slot) + 8 (seq).
const PreimageLen = 110

// Params carries the seven inputs the commitment binds together.
type Params struct {
	ChainID   uint64
	ProgramID solana.PublicKey
	ProofHash [32]byte
	StartSlot uint64
	EndSlot   uint64
	Seq       uint64
}

// Preimage returns the 110-byte domain-separated commitment preimage.
func Preimage(p Params) ([]byte, error) {
	buf := make([]byte, 0, PreimageLen)
	buf = append(buf, DomainV1...)
	buf = append(buf, canonical.U64LE(p.ChainID)...)
	buf = append(buf, p.ProgramID.Bytes()...)
	buf = append(buf, p.ProofHash[:]...)
	buf = append(buf, canonical.U64LE(p.StartSlot)...)
	buf = append(buf, canonical.U64LE(p.EndSlot)...)
	buf = append(buf, canonical.U64LE(p.Seq)...)

	if len(buf) != PreimageLen {
		return nil, fmt.Errorf("commitment preimage is %d bytes, expected %d", len(buf), PreimageLen)
	}
	return buf, nil
}

// Digest returns the BLAKE3 digest of the commitment preimage.
func Digest(p Params) ([32]byte, error) {
	pre, err := Preimage(p)
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(pre), nil
}
