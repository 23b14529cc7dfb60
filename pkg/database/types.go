// Copyright 2025 zkSL Labs
//
// Row types for the relational store

package database

import (
	"time"

	"github.com/google/uuid"
)

// Commitment levels as stored in proofs.commitment_level.
const (
	CommitmentProcessed int16 = 0
	CommitmentConfirmed int16 = 1
	CommitmentFinalized int16 = 2
)

// Proof is one row of the proofs table, keyed by (proof_hash, seq).
type Proof struct {
	ProofHash        []byte    `json:"proof_hash"`
	Seq              int64     `json:"seq"`
	ArtifactID       uuid.UUID `json:"artifact_id"`
	StartSlot        int64     `json:"start_slot"`
	EndSlot          int64     `json:"end_slot"`
	DsHash           []byte    `json:"ds_hash"`
	ArtifactLen      int32     `json:"artifact_len"`
	StateRootBefore  []byte    `json:"state_root_before"`
	StateRootAfter   []byte    `json:"state_root_after"`
	SubmittedBy      string    `json:"submitted_by,omitempty"`
	AggregatorPubkey string    `json:"aggregator_pubkey"`
	Ts               time.Time `json:"ts"`
	CommitmentLevel  int16     `json:"commitment_level"`
	Txid             string    `json:"txid,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validator is one row of the validators table, keyed by pubkey.
type Validator struct {
	Pubkey     string     `json:"pubkey"`
	Status     string     `json:"status"`
	Escrow     string     `json:"escrow"`
	LockTs     *time.Time `json:"lock_ts,omitempty"`
	UnlockTs   *time.Time `json:"unlock_ts,omitempty"`
	NumAccepts int64      `json:"num_accepts"`
	LastSeen   time.Time  `json:"last_seen"`
}

// IndexerState is the single persisted cursor row (id = 1).
type IndexerState struct {
	LastScanTs       *time.Time `json:"last_scan_ts,omitempty"`
	LastSeenSlot     int64      `json:"last_seen_slot"`
	LastSignature    string     `json:"last_signature,omitempty"`
	LastReconciledTs *time.Time `json:"last_reconciled_ts,omitempty"`
}
