// Copyright 2025 zkSL Labs
//
// Unit tests for the proof repository
// Uses a test database when ZKSL_TEST_DB is set; skipped otherwise

package database

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

var testClient *Client

func TestMain(m *testing.M) {
	connStr := os.Getenv("ZKSL_TEST_DB")
	if connStr == "" {
		// Skip database tests if no test DB configured
		os.Exit(0)
	}

	var err error
	testClient, err = NewClient(connStr, DefaultOptions, log.New(os.Stderr, "[TestDB] ", log.LstdFlags))
	if err != nil {
		panic("Failed to connect to test database: " + err.Error())
	}
	if err := testClient.MigrateUp(context.Background()); err != nil {
		panic("Failed to migrate test database: " + err.Error())
	}

	code := m.Run()
	testClient.Close()
	os.Exit(code)
}

func testProof(t *testing.T, seq int64) *Proof {
	t.Helper()
	// Distinct hashes per (t.Name, seq) keep tests independent.
	h := blake3.Sum256([]byte(t.Name()))
	root := blake3.Sum256(h[:])
	ds := blake3.Sum256(root[:])
	var id uuid.UUID
	copy(id[:], h[16:])
	id[6] = (id[6] & 0x0F) | 0x40
	id[8] = (id[8] & 0x3F) | 0x80

	return &Proof{
		ProofHash:        h[:],
		Seq:              seq,
		ArtifactID:       id,
		StartSlot:        10,
		EndSlot:          20,
		DsHash:           ds[:],
		ArtifactLen:      131,
		StateRootBefore:  root[:],
		StateRootAfter:   root[:],
		AggregatorPubkey: "11111111111111111111111111111111",
		Ts:               time.Now().UTC(),
		CommitmentLevel:  CommitmentProcessed,
		Txid:             "tx-" + t.Name(),
	}
}

func TestProofUpsertUpdatesOnlyCommitmentLevel(t *testing.T) {
	if testClient == nil {
		t.Skip("Test database not configured")
	}
	repo := NewProofRepository(testClient)
	ctx := context.Background()

	p := testProof(t, 1)
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Re-insert the same (proof_hash, seq) with different fields and a
	// bumped level: only the level may change.
	mutated := *p
	mutated.StartSlot = 999
	mutated.CommitmentLevel = CommitmentConfirmed
	if err := repo.Upsert(ctx, &mutated); err != nil {
		t.Fatalf("re-Upsert: %v", err)
	}

	got, err := repo.GetByKey(ctx, p.ProofHash, p.Seq)
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if got == nil {
		t.Fatal("proof not found after upsert")
	}
	if got.CommitmentLevel != CommitmentConfirmed {
		t.Errorf("commitment_level = %d, want %d", got.CommitmentLevel, CommitmentConfirmed)
	}
	if got.StartSlot != 10 {
		t.Errorf("start_slot changed on re-insert: %d", got.StartSlot)
	}
	if !bytes.Equal(got.ProofHash, p.ProofHash) {
		t.Error("proof_hash mismatch")
	}
}

func TestProofGetByArtifactID(t *testing.T) {
	if testClient == nil {
		t.Skip("Test database not configured")
	}
	repo := NewProofRepository(testClient)
	ctx := context.Background()

	p := testProof(t, 2)
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByArtifactID(ctx, p.ArtifactID)
	if err != nil {
		t.Fatalf("GetByArtifactID: %v", err)
	}
	if got == nil || got.Seq != p.Seq {
		t.Errorf("lookup by artifact id failed: %+v", got)
	}

	missing, err := repo.GetByArtifactID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetByArtifactID(missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown artifact id")
	}
}

func TestProofPendingAndLevels(t *testing.T) {
	if testClient == nil {
		t.Skip("Test database not configured")
	}
	repo := NewProofRepository(testClient)
	ctx := context.Background()

	p := testProof(t, 3)
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	pending, err := repo.SelectPending(ctx, 100)
	if err != nil {
		t.Fatalf("SelectPending: %v", err)
	}
	found := false
	for _, row := range pending {
		if bytes.Equal(row.ProofHash, p.ProofHash) && row.Seq == p.Seq {
			found = true
		}
	}
	if !found {
		t.Error("processed proof missing from pending set")
	}

	if err := repo.UpdateCommitmentLevel(ctx, p.ProofHash, p.Seq, CommitmentFinalized); err != nil {
		t.Fatalf("UpdateCommitmentLevel: %v", err)
	}
	got, _ := repo.GetByKey(ctx, p.ProofHash, p.Seq)
	if got.CommitmentLevel != CommitmentFinalized {
		t.Errorf("level = %d after finalize", got.CommitmentLevel)
	}

	// Finalized is terminal: a downgrade attempt is a no-op.
	if err := repo.UpdateCommitmentLevel(ctx, p.ProofHash, p.Seq, CommitmentConfirmed); err != nil {
		t.Fatalf("downgrade attempt: %v", err)
	}
	got, _ = repo.GetByKey(ctx, p.ProofHash, p.Seq)
	if got.CommitmentLevel != CommitmentFinalized {
		t.Errorf("level downgraded to %d", got.CommitmentLevel)
	}
}

func TestProofDelete(t *testing.T) {
	if testClient == nil {
		t.Skip("Test database not configured")
	}
	repo := NewProofRepository(testClient)
	ctx := context.Background()

	p := testProof(t, 4)
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Delete(ctx, p.ProofHash, p.Seq); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := repo.GetByKey(ctx, p.ProofHash, p.Seq)
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if got != nil {
		t.Error("row survived delete")
	}
}

func TestValidatorUpsert(t *testing.T) {
	if testClient == nil {
		t.Skip("Test database not configured")
	}
	repo := NewValidatorRepository(testClient)
	ctx := context.Background()

	v := &Validator{
		Pubkey:     "validator-" + t.Name(),
		Status:     "Active",
		Escrow:     "escrow-1",
		NumAccepts: 1,
	}
	if err := repo.Upsert(ctx, v); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	v.Status = "Unlocked"
	v.NumAccepts = 5
	if err := repo.Upsert(ctx, v); err != nil {
		t.Fatalf("re-Upsert: %v", err)
	}

	got, err := repo.GetByPubkey(ctx, v.Pubkey)
	if err != nil {
		t.Fatalf("GetByPubkey: %v", err)
	}
	if got.Status != "Unlocked" || got.NumAccepts != 5 {
		t.Errorf("re-insert did not update: %+v", got)
	}
}

func TestIndexerStateCursor(t *testing.T) {
	if testClient == nil {
		t.Skip("Test database not configured")
	}
	repo := NewIndexerStateRepository(testClient)
	ctx := context.Background()

	if err := repo.StampScan(ctx, time.Now().UTC()); err != nil {
		t.Fatalf("StampScan: %v", err)
	}
	if err := repo.AdvanceCursor(ctx, 500, "sig-1"); err != nil {
		t.Fatalf("AdvanceCursor: %v", err)
	}
	// Lower slot and empty signature must not move the cursor back.
	if err := repo.AdvanceCursor(ctx, 100, ""); err != nil {
		t.Fatalf("AdvanceCursor: %v", err)
	}

	s, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.LastSeenSlot < 500 {
		t.Errorf("last_seen_slot regressed: %d", s.LastSeenSlot)
	}
	if s.LastSignature != "sig-1" {
		t.Errorf("last_signature = %q", s.LastSignature)
	}
}
