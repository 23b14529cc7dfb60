// Copyright 2025 zkSL Labs
//
// Ed25519 Pre-Verification Instruction - builds the signature-check
// instruction that precedes the anchor call. All references use the
// current-instruction sentinel 0xFFFF so the signature, public key, and
// message bytes are self-contained in this instruction's data.

package anchor

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/zksllabs/zksealevel-anchor/pkg/anchorprog"
)

// currentInstructionIndex tells the Ed25519 program to read offsets
// from this instruction's own data.
const currentInstructionIndex = uint16(0xFFFF)

// ed25519HeaderLen: count (1) + padding (1) + offsets block (14).
const ed25519HeaderLen = 2 + 14

// NewEd25519Instruction builds the pre-verification instruction
// asserting that message was signed by pubkey.
func NewEd25519Instruction(pubkey [32]byte, signature, message []byte) (solana.Instruction, error) {
	if len(signature) != ed25519.SignatureSize {
		return nil, fmt.Errorf("signature is %d bytes, expected %d", len(signature), ed25519.SignatureSize)
	}

	pubkeyOffset := uint16(ed25519HeaderLen)
	sigOffset := pubkeyOffset + 32
	msgOffset := sigOffset + uint16(ed25519.SignatureSize)

	data := make([]byte, 0, int(msgOffset)+len(message))
	data = append(data, 1, 0) // one signature, one byte padding

	var off [14]byte
	binary.LittleEndian.PutUint16(off[0:2], sigOffset)
	binary.LittleEndian.PutUint16(off[2:4], currentInstructionIndex)
	binary.LittleEndian.PutUint16(off[4:6], pubkeyOffset)
	binary.LittleEndian.PutUint16(off[6:8], currentInstructionIndex)
	binary.LittleEndian.PutUint16(off[8:10], msgOffset)
	binary.LittleEndian.PutUint16(off[10:12], uint16(len(message)))
	binary.LittleEndian.PutUint16(off[12:14], currentInstructionIndex)
	data = append(data, off[:]...)

	data = append(data, pubkey[:]...)
	data = append(data, signature...)
	data = append(data, message...)

	return solana.NewInstruction(
		anchorprog.Ed25519SigVerifyProgramID,
		solana.AccountMetaSlice{},
		data,
	), nil
}

// NewComputeBudgetInstruction creates a SetComputeUnitLimit instruction.
func NewComputeBudgetInstruction(computeUnits uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = 0x02 // SetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], computeUnits)

	return solana.NewInstruction(
		anchorprog.ComputeBudgetProgramID,
		solana.AccountMetaSlice{},
		data,
	)
}
