// Copyright 2025 zkSL Labs
//
// Validator Repository - rows keyed by pubkey. Re-inserts update
// status, accept counter, and last-seen timestamp.

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// ValidatorRepository handles validator row operations.
type ValidatorRepository struct {
	client *Client
}

// NewValidatorRepository creates a new validator repository.
func NewValidatorRepository(client *Client) *ValidatorRepository {
	return &ValidatorRepository{client: client}
}

// Upsert inserts or refreshes a validator row.
func (r *ValidatorRepository) Upsert(ctx context.Context, v *Validator) error {
	_, err := r.client.DB().ExecContext(ctx, `
		INSERT INTO validators (pubkey, status, escrow, lock_ts, unlock_ts, num_accepts, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (pubkey) DO UPDATE SET
			status = EXCLUDED.status,
			num_accepts = EXCLUDED.num_accepts,
			last_seen = now()`,
		v.Pubkey, v.Status, v.Escrow, v.LockTs, v.UnlockTs, v.NumAccepts)
	if err != nil {
		return fmt.Errorf("upsert validator: %w", err)
	}
	return nil
}

// GetByPubkey fetches a validator row; nil when absent.
func (r *ValidatorRepository) GetByPubkey(ctx context.Context, pubkey string) (*Validator, error) {
	var v Validator
	err := r.client.DB().QueryRowContext(ctx, `
		SELECT pubkey, status, escrow, lock_ts, unlock_ts, num_accepts, last_seen
		FROM validators WHERE pubkey = $1`, pubkey).
		Scan(&v.Pubkey, &v.Status, &v.Escrow, &v.LockTs, &v.UnlockTs, &v.NumAccepts, &v.LastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get validator: %w", err)
	}
	return &v, nil
}
