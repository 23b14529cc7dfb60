// Copyright 2025 zkSL Labs
//
// Anchor Instruction Payload - the 220-byte instruction data consumed
// by the verifier's anchor_proof call: 8-byte global discriminator
// followed by the 212-byte anchored tuple. The tuple layout is shared
// with ProofRecord, which is the same bytes behind an account
// discriminator.

package anchorprog

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// AnchorPayloadLen is the exact instruction data length.
const AnchorPayloadLen = 8 + 212

// EncodeAnchorPayload serializes the anchor_proof instruction data.
func EncodeAnchorPayload(r *ProofRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteBytes(AnchorProofDiscriminator(), false); err != nil {
		return nil, err
	}
	if err := writeProofRecordBody(enc, r); err != nil {
		return nil, err
	}
	if buf.Len() != AnchorPayloadLen {
		return nil, fmt.Errorf("anchor payload encoded to %d bytes, expected %d", buf.Len(), AnchorPayloadLen)
	}
	return buf.Bytes(), nil
}

// DecodeAnchorPayload parses anchor_proof instruction data back into
// the anchored tuple.
func DecodeAnchorPayload(data []byte) (*ProofRecord, error) {
	if len(data) != AnchorPayloadLen {
		return nil, fmt.Errorf("anchor payload is %d bytes, expected %d", len(data), AnchorPayloadLen)
	}
	if !bytes.Equal(data[:8], AnchorProofDiscriminator()) {
		return nil, fmt.Errorf("anchor payload discriminator mismatch")
	}
	// Re-frame the body behind the account discriminator and reuse the
	// record decoder.
	framed := make([]byte, 0, ProofRecordLen)
	framed = append(framed, AccountDiscriminator("ProofRecord")...)
	framed = append(framed, data[8:]...)
	return DecodeProofRecord(framed)
}
