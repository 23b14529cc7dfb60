// Copyright 2025 zkSL Labs
//
// Proof Repository - rows keyed by (proof_hash, seq). Re-inserting an
// existing tuple updates only commitment_level; the primary-key
// ON CONFLICT clause is the authoritative ordering device for repeated
// inserts. Proof rows are written by the indexer's polling path only;
// the streaming path leaves proof records to it.

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// ProofRepository handles proof row operations.
type ProofRepository struct {
	client *Client
}

// NewProofRepository creates a new proof repository.
func NewProofRepository(client *Client) *ProofRepository {
	return &ProofRepository{client: client}
}

const proofColumns = `proof_hash, seq, artifact_id, start_slot, end_slot, ds_hash,
	artifact_len, state_root_before, state_root_after, submitted_by,
	aggregator_pubkey, ts, commitment_level, txid, created_at, updated_at`

// Upsert inserts a proof row or, when (proof_hash, seq) already
// exists, bumps only its commitment level and updated_at.
func (r *ProofRepository) Upsert(ctx context.Context, p *Proof) error {
	_, err := r.client.DB().ExecContext(ctx, `
		INSERT INTO proofs (proof_hash, seq, artifact_id, start_slot, end_slot, ds_hash,
			artifact_len, state_root_before, state_root_after, submitted_by,
			aggregator_pubkey, ts, commitment_level, txid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''))
		ON CONFLICT (proof_hash, seq) DO UPDATE SET
			commitment_level = EXCLUDED.commitment_level,
			updated_at = now()`,
		p.ProofHash, p.Seq, p.ArtifactID, p.StartSlot, p.EndSlot, p.DsHash,
		p.ArtifactLen, p.StateRootBefore, p.StateRootAfter, nullable(p.SubmittedBy),
		p.AggregatorPubkey, p.Ts, p.CommitmentLevel, p.Txid)
	if err != nil {
		return fmt.Errorf("upsert proof: %w", err)
	}
	return nil
}

// GetByArtifactID fetches a proof row by its artifact identifier; nil
// when absent.
func (r *ProofRepository) GetByArtifactID(ctx context.Context, id uuid.UUID) (*Proof, error) {
	row := r.client.DB().QueryRowContext(ctx,
		`SELECT `+proofColumns+` FROM proofs WHERE artifact_id = $1`, id)
	return scanProof(row)
}

// GetByKey fetches a proof row by (proof_hash, seq); nil when absent.
func (r *ProofRepository) GetByKey(ctx context.Context, proofHash []byte, seq int64) (*Proof, error) {
	row := r.client.DB().QueryRowContext(ctx,
		`SELECT `+proofColumns+` FROM proofs WHERE proof_hash = $1 AND seq = $2`, proofHash, seq)
	return scanProof(row)
}

// List returns proof rows newest-first.
func (r *ProofRepository) List(ctx context.Context, limit, offset int) ([]*Proof, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.client.DB().QueryContext(ctx,
		`SELECT `+proofColumns+` FROM proofs ORDER BY seq DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}
	defer rows.Close()
	return scanProofs(rows)
}

// SelectPending returns up to limit rows below the finalized level,
// oldest first, for reconciliation.
func (r *ProofRepository) SelectPending(ctx context.Context, limit int) ([]*Proof, error) {
	rows, err := r.client.DB().QueryContext(ctx,
		`SELECT `+proofColumns+` FROM proofs
		 WHERE commitment_level < $1
		 ORDER BY created_at ASC LIMIT $2`, CommitmentFinalized, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending proofs: %w", err)
	}
	defer rows.Close()
	return scanProofs(rows)
}

// UpdateCommitmentLevel bumps the level for one key.
func (r *ProofRepository) UpdateCommitmentLevel(ctx context.Context, proofHash []byte, seq int64, level int16) error {
	_, err := r.client.DB().ExecContext(ctx, `
		UPDATE proofs SET commitment_level = $3, updated_at = now()
		WHERE proof_hash = $1 AND seq = $2 AND commitment_level < $3`,
		proofHash, seq, level)
	if err != nil {
		return fmt.Errorf("update commitment level: %w", err)
	}
	return nil
}

// Delete removes a row whose transaction the ledger dropped.
func (r *ProofRepository) Delete(ctx context.Context, proofHash []byte, seq int64) error {
	_, err := r.client.DB().ExecContext(ctx,
		`DELETE FROM proofs WHERE proof_hash = $1 AND seq = $2`, proofHash, seq)
	if err != nil {
		return fmt.Errorf("delete proof: %w", err)
	}
	return nil
}

// MaxEndSlot returns the highest end_slot present, 0 when empty.
func (r *ProofRepository) MaxEndSlot(ctx context.Context) (int64, error) {
	var maxSlot sql.NullInt64
	err := r.client.DB().QueryRowContext(ctx, `SELECT MAX(end_slot) FROM proofs`).Scan(&maxSlot)
	if err != nil {
		return 0, fmt.Errorf("max end slot: %w", err)
	}
	return maxSlot.Int64, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProof(row rowScanner) (*Proof, error) {
	var p Proof
	var submittedBy, txid sql.NullString
	err := row.Scan(&p.ProofHash, &p.Seq, &p.ArtifactID, &p.StartSlot, &p.EndSlot, &p.DsHash,
		&p.ArtifactLen, &p.StateRootBefore, &p.StateRootAfter, &submittedBy,
		&p.AggregatorPubkey, &p.Ts, &p.CommitmentLevel, &txid, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan proof: %w", err)
	}
	p.SubmittedBy = submittedBy.String
	p.Txid = txid.String
	return &p, nil
}

func scanProofs(rows *sql.Rows) ([]*Proof, error) {
	var out []*Proof
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
