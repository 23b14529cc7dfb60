// Copyright 2025 zkSL Labs
//
// Unit tests for indexer decode helpers and level mapping

package indexer

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/zksllabs/zksealevel-anchor/pkg/anchorprog"
	"github.com/zksllabs/zksealevel-anchor/pkg/database"
)

func TestCommitmentLevelMapping(t *testing.T) {
	tests := []struct {
		name   string
		status *rpc.SignatureStatusesResult
		want   int16
	}{
		{"nil status", nil, database.CommitmentProcessed},
		{"processed", &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusProcessed}, database.CommitmentProcessed},
		{"confirmed", &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}, database.CommitmentConfirmed},
		{"finalized", &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusFinalized}, database.CommitmentFinalized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commitmentLevel(tt.status); got != tt.want {
				t.Errorf("commitmentLevel = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidatorRow(t *testing.T) {
	record := &anchorprog.ValidatorRecord{
		LockTs:     1700000000,
		Status:     anchorprog.ValidatorActive,
		NumAccepts: 3,
	}
	record.Pubkey[0] = 1
	record.Escrow[0] = 2

	seen := time.Now().UTC()
	v := validatorRow(record, seen)

	if v.Status != "Active" {
		t.Errorf("status = %q", v.Status)
	}
	if v.NumAccepts != 3 {
		t.Errorf("num_accepts = %d", v.NumAccepts)
	}
	if v.LockTs == nil || v.LockTs.Unix() != 1700000000 {
		t.Errorf("lock_ts = %v", v.LockTs)
	}
	if v.UnlockTs != nil {
		t.Error("unlock_ts set for active validator")
	}
	if v.Pubkey == "" || v.Pubkey == v.Escrow {
		t.Errorf("pubkey/escrow rendering: %q %q", v.Pubkey, v.Escrow)
	}
	if !v.LastSeen.Equal(seen) {
		t.Errorf("last_seen = %v", v.LastSeen)
	}
}

func TestValidatorRowUnlocked(t *testing.T) {
	record := &anchorprog.ValidatorRecord{
		LockTs: 1700000000,
		Status: anchorprog.ValidatorUnlocked,
	}
	v := validatorRow(record, time.Now().UTC())
	if v.Status != "Unlocked" {
		t.Errorf("status = %q", v.Status)
	}
	if v.UnlockTs == nil || v.LockTs != nil {
		t.Errorf("timestamps: lock=%v unlock=%v", v.LockTs, v.UnlockTs)
	}
}
