// Copyright 2025 zkSL Labs
//
// On-Chain Account Records - binary layouts of the verifier program's
// accounts. Each record starts with an 8-byte account discriminator;
// all integers are little-endian fixed width. Encode(Decode(b)) == b for
// proof records. Validator records round-trip every field, but the
// 47-byte reserved tail is not kept: it re-encodes as zeros.

package anchorprog

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Record sizes excluding nothing (discriminator included).
const (
	ConfigLen          = 8 + 32 + 32 + 8 + 8
	AggregatorStateLen = 8 + 8
	RangeStateLen      = 8 + 8
	ProofRecordLen     = 8 + 212
	ValidatorRecordLen = 8 + 32 + 32 + 8 + 1 + 8 + 47

	validatorReservedLen = 47
)

// ValidatorStatus is the on-chain validator lifecycle state.
type ValidatorStatus uint8

const (
	ValidatorActive   ValidatorStatus = 0
	ValidatorUnlocked ValidatorStatus = 1
)

func (s ValidatorStatus) String() string {
	switch s {
	case ValidatorActive:
		return "Active"
	case ValidatorUnlocked:
		return "Unlocked"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// Config is the process-wide configuration record. Written only by the
// administrator through the verifier program; this core reads it.
type Config struct {
	AggregatorPubkey     [32]byte
	NextAggregatorPubkey [32]byte
	ActivationSeq        uint64
	ChainID              uint64
}

// AggregatorState carries the last accepted sequence number.
type AggregatorState struct {
	LastSeq uint64
}

// RangeState carries the last anchored end slot; enforces monotonic,
// non-overlapping ranges.
type RangeState struct {
	LastEndSlot uint64
}

// ProofRecord is the anchored tuple stored per (proof_hash, seq). Its
// layout matches the anchor instruction payload minus the discriminator.
type ProofRecord struct {
	ArtifactID       [16]byte
	ProofHash        [32]byte
	Seq              uint64
	StartSlot        uint64
	EndSlot          uint64
	ArtifactLen      uint32
	StateRootBefore  [32]byte
	StateRootAfter   [32]byte
	AggregatorPubkey [32]byte
	Timestamp        int64
	DsHash           [32]byte
}

// ValidatorRecord describes a registered participant.
type ValidatorRecord struct {
	Pubkey     [32]byte
	Escrow     [32]byte
	LockTs     int64
	Status     ValidatorStatus
	NumAccepts uint64
}

// DecodeConfig parses a configuration record.
func DecodeConfig(data []byte) (*Config, error) {
	dec, err := newRecordDecoder(data, "Config", ConfigLen)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := readBytes32(dec, &c.AggregatorPubkey); err != nil {
		return nil, err
	}
	if err := readBytes32(dec, &c.NextAggregatorPubkey); err != nil {
		return nil, err
	}
	if c.ActivationSeq, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if c.ChainID, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	return &c, nil
}

// DecodeAggregatorState parses an aggregator-state record.
func DecodeAggregatorState(data []byte) (*AggregatorState, error) {
	dec, err := newRecordDecoder(data, "AggregatorState", AggregatorStateLen)
	if err != nil {
		return nil, err
	}
	var s AggregatorState
	if s.LastSeq, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeRangeState parses a range-state record.
func DecodeRangeState(data []byte) (*RangeState, error) {
	dec, err := newRecordDecoder(data, "RangeState", RangeStateLen)
	if err != nil {
		return nil, err
	}
	var s RangeState
	if s.LastEndSlot, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeProofRecord parses a proof record.
func DecodeProofRecord(data []byte) (*ProofRecord, error) {
	dec, err := newRecordDecoder(data, "ProofRecord", ProofRecordLen)
	if err != nil {
		return nil, err
	}
	var r ProofRecord
	idBytes, err := dec.ReadNBytes(16)
	if err != nil {
		return nil, err
	}
	copy(r.ArtifactID[:], idBytes)
	if err := readBytes32(dec, &r.ProofHash); err != nil {
		return nil, err
	}
	if r.Seq, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if r.StartSlot, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if r.EndSlot, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if r.ArtifactLen, err = dec.ReadUint32(bin.LE); err != nil {
		return nil, err
	}
	if err := readBytes32(dec, &r.StateRootBefore); err != nil {
		return nil, err
	}
	if err := readBytes32(dec, &r.StateRootAfter); err != nil {
		return nil, err
	}
	if err := readBytes32(dec, &r.AggregatorPubkey); err != nil {
		return nil, err
	}
	if r.Timestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	if err := readBytes32(dec, &r.DsHash); err != nil {
		return nil, err
	}
	return &r, nil
}

// DecodeValidatorRecord parses a validator record.
func DecodeValidatorRecord(data []byte) (*ValidatorRecord, error) {
	dec, err := newRecordDecoder(data, "ValidatorRecord", ValidatorRecordLen)
	if err != nil {
		return nil, err
	}
	var r ValidatorRecord
	if err := readBytes32(dec, &r.Pubkey); err != nil {
		return nil, err
	}
	if err := readBytes32(dec, &r.Escrow); err != nil {
		return nil, err
	}
	if r.LockTs, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	status, err := dec.ReadUint8()
	if err != nil {
		return nil, err
	}
	if status > uint8(ValidatorUnlocked) {
		return nil, fmt.Errorf("validator record: invalid status %d", status)
	}
	r.Status = ValidatorStatus(status)
	if r.NumAccepts, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	// 47-byte reserved tail follows; content is ignored.
	return &r, nil
}

// EncodeProofRecord serializes a proof record with its discriminator.
func EncodeProofRecord(r *ProofRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteBytes(AccountDiscriminator("ProofRecord"), false); err != nil {
		return nil, err
	}
	if err := writeProofRecordBody(enc, r); err != nil {
		return nil, err
	}
	if buf.Len() != ProofRecordLen {
		return nil, fmt.Errorf("proof record encoded to %d bytes, expected %d", buf.Len(), ProofRecordLen)
	}
	return buf.Bytes(), nil
}

func writeProofRecordBody(enc *bin.Encoder, r *ProofRecord) error {
	if err := enc.WriteBytes(r.ArtifactID[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(r.ProofHash[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint64(r.Seq, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint64(r.StartSlot, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint64(r.EndSlot, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint32(r.ArtifactLen, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteBytes(r.StateRootBefore[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(r.StateRootAfter[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(r.AggregatorPubkey[:], false); err != nil {
		return err
	}
	if err := enc.WriteInt64(r.Timestamp, bin.LE); err != nil {
		return err
	}
	return enc.WriteBytes(r.DsHash[:], false)
}

// EncodeValidatorRecord serializes a validator record with its
// discriminator and zeroed reserved tail.
func EncodeValidatorRecord(r *ValidatorRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteBytes(AccountDiscriminator("ValidatorRecord"), false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(r.Pubkey[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(r.Escrow[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteInt64(r.LockTs, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(uint8(r.Status)); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(r.NumAccepts, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(make([]byte, validatorReservedLen), false); err != nil {
		return nil, err
	}
	if buf.Len() != ValidatorRecordLen {
		return nil, fmt.Errorf("validator record encoded to %d bytes, expected %d", buf.Len(), ValidatorRecordLen)
	}
	return buf.Bytes(), nil
}

// RecordKind identifies an account record by its discriminator.
func RecordKind(data []byte) string {
	if len(data) < 8 {
		return ""
	}
	switch {
	case bytes.Equal(data[:8], AccountDiscriminator("ProofRecord")):
		return "ProofRecord"
	case bytes.Equal(data[:8], AccountDiscriminator("ValidatorRecord")):
		return "ValidatorRecord"
	case bytes.Equal(data[:8], AccountDiscriminator("Config")):
		return "Config"
	default:
		return ""
	}
}

func newRecordDecoder(data []byte, kind string, wantLen int) (*bin.Decoder, error) {
	if len(data) < wantLen {
		return nil, fmt.Errorf("%s record too short: %d bytes, expected %d", kind, len(data), wantLen)
	}
	dec := bin.NewBorshDecoder(data)
	disc, err := dec.ReadDiscriminator()
	if err != nil {
		return nil, fmt.Errorf("%s record: read discriminator: %w", kind, err)
	}
	if !bytes.Equal(disc[:], AccountDiscriminator(kind)) {
		return nil, fmt.Errorf("%s record: discriminator mismatch", kind)
	}
	return dec, nil
}

func readBytes32(dec *bin.Decoder, out *[32]byte) error {
	b, err := dec.ReadNBytes(32)
	if err != nil {
		return err
	}
	copy(out[:], b)
	return nil
}
