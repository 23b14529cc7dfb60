// Copyright 2025 zkSL Labs
//
// Indexer State Repository - the single cursor row that survives
// restarts (id = 1).

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// IndexerStateRepository handles the indexer cursor row.
type IndexerStateRepository struct {
	client *Client
}

// NewIndexerStateRepository creates a new indexer state repository.
func NewIndexerStateRepository(client *Client) *IndexerStateRepository {
	return &IndexerStateRepository{client: client}
}

// Get reads the cursor row, creating it if the migration seed is gone.
func (r *IndexerStateRepository) Get(ctx context.Context) (*IndexerState, error) {
	var s IndexerState
	var lastSignature sql.NullString
	err := r.client.DB().QueryRowContext(ctx, `
		SELECT last_scan_ts, last_seen_slot, last_signature, last_reconciled_ts
		FROM indexer_state WHERE id = 1`).
		Scan(&s.LastScanTs, &s.LastSeenSlot, &lastSignature, &s.LastReconciledTs)
	if err == sql.ErrNoRows {
		if _, err := r.client.DB().ExecContext(ctx,
			`INSERT INTO indexer_state (id) VALUES (1) ON CONFLICT DO NOTHING`); err != nil {
			return nil, fmt.Errorf("seed indexer state: %w", err)
		}
		return &IndexerState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get indexer state: %w", err)
	}
	s.LastSignature = lastSignature.String
	return &s, nil
}

// StampScan records the start of a polling cycle.
func (r *IndexerStateRepository) StampScan(ctx context.Context, at time.Time) error {
	_, err := r.client.DB().ExecContext(ctx,
		`UPDATE indexer_state SET last_scan_ts = $1 WHERE id = 1`, at)
	if err != nil {
		return fmt.Errorf("stamp scan: %w", err)
	}
	return nil
}

// AdvanceCursor records the scan high-water mark. lastSignature is
// only written when non-empty (commitment >= confirmed).
func (r *IndexerStateRepository) AdvanceCursor(ctx context.Context, lastSeenSlot int64, lastSignature string) error {
	_, err := r.client.DB().ExecContext(ctx, `
		UPDATE indexer_state SET
			last_seen_slot = GREATEST(last_seen_slot, $1),
			last_signature = COALESCE(NULLIF($2, ''), last_signature)
		WHERE id = 1`, lastSeenSlot, lastSignature)
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	return nil
}

// StampReconciled records the end of a reconciliation pass.
func (r *IndexerStateRepository) StampReconciled(ctx context.Context, at time.Time) error {
	_, err := r.client.DB().ExecContext(ctx,
		`UPDATE indexer_state SET last_reconciled_ts = $1 WHERE id = 1`, at)
	if err != nil {
		return fmt.Errorf("stamp reconciled: %w", err)
	}
	return nil
}
