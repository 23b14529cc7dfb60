// Copyright 2025 zkSL Labs
//
// Artifact - minimal fingerprint of a proved state transition window.
// The four fields are immutable once the identifier is minted; both the
// proof-hash and the identifier derive from them alone.

package artifact

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/zksllabs/zksealevel-anchor/pkg/canonical"
)

// MaxSlotSpan is the largest permitted inclusive slot range.
const MaxSlotSpan = 2048

// MaxCanonicalLen bounds the canonical JSON size recorded on-chain.
const MaxCanonicalLen = 524288

// Artifact is the minimal descriptor of a state transition over a slot
// range. Roots are stored as lowercase 64-char hex strings.
type Artifact struct {
	StartSlot       uint64 `json:"start_slot"`
	EndSlot         uint64 `json:"end_slot"`
	StateRootBefore string `json:"state_root_before"`
	StateRootAfter  string `json:"state_root_after"`
}

// New validates the inputs, normalizes the roots, and returns the artifact.
func New(startSlot, endSlot uint64, rootBefore, rootAfter string) (*Artifact, error) {
	if endSlot < startSlot {
		return nil, fmt.Errorf("end_slot %d precedes start_slot %d", endSlot, startSlot)
	}
	if span := endSlot - startSlot + 1; span > MaxSlotSpan {
		return nil, fmt.Errorf("slot span %d exceeds maximum %d", span, MaxSlotSpan)
	}

	before, err := canonical.NormalizeHex32(rootBefore)
	if err != nil {
		return nil, fmt.Errorf("state_root_before: %w", err)
	}
	after, err := canonical.NormalizeHex32(rootAfter)
	if err != nil {
		return nil, fmt.Errorf("state_root_after: %w", err)
	}

	return &Artifact{
		StartSlot:       startSlot,
		EndSlot:         endSlot,
		StateRootBefore: before,
		StateRootAfter:  after,
	}, nil
}

// Canonical returns the canonical JSON encoding of exactly the four
// artifact fields. This is the byte string the proof-hash commits to and
// the file written to the artifact directory.
func (a *Artifact) Canonical() ([]byte, error) {
	return canonical.Marshal(map[string]interface{}{
		"start_slot":        a.StartSlot,
		"end_slot":          a.EndSlot,
		"state_root_before": a.StateRootBefore,
		"state_root_after":  a.StateRootAfter,
	})
}

// ProofHash returns the BLAKE3 digest of the canonical encoding.
func (a *Artifact) ProofHash() ([32]byte, error) {
	canon, err := a.Canonical()
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(canon), nil
}

// ID derives the artifact identifier: the first 16 bytes of the
// proof-hash shaped into an RFC 4122 v4 UUID (version nibble 0100,
// variant bits 10).
func (a *Artifact) ID() (uuid.UUID, error) {
	ph, err := a.ProofHash()
	if err != nil {
		return uuid.Nil, err
	}
	return IDFromProofHash(ph), nil
}

// IDFromProofHash shapes an already-computed proof-hash into the
// artifact identifier.
func IDFromProofHash(proofHash [32]byte) uuid.UUID {
	var b [16]byte
	copy(b[:], proofHash[:16])
	b[6] = (b[6] & 0x0F) | 0x40
	b[8] = (b[8] & 0x3F) | 0x80
	return uuid.UUID(b)
}
