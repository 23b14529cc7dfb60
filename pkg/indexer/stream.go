// Copyright 2025 zkSL Labs
//
// Streaming Path - account-change subscription for the verifier
// program. Validator records upsert immediately; proof records are left
// to the polling path, which can attach a verified transaction id.

package indexer

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/zksllabs/zksealevel-anchor/pkg/anchorprog"
)

// RunStream consumes the account-change subscription until ctx is
// cancelled or the subscription dies; the caller decides whether to
// reconnect.
func (ix *Indexer) RunStream(ctx context.Context) error {
	sub, err := ix.ledger.SubscribeProgram(rpc.CommitmentConfirmed)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	ix.logger.Println("account-change stream connected")
	for {
		got, err := sub.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if got == nil || got.Value.Account == nil {
			continue
		}

		data := got.Value.Account.Data.GetBinary()
		switch anchorprog.RecordKind(data) {
		case "ValidatorRecord":
			if err := ix.upsertValidator(ctx, data); err != nil {
				decodeFailures.Inc()
				ix.logger.Printf("stream validator record %s: %v", got.Value.Pubkey, err)
			}
		case "ProofRecord":
			// The stream lacks a verified transaction id; the polling
			// path owns proof upserts.
			streamProofEvents.Inc()
		}
	}
}

// StreamForever reconnects the stream with a fixed backoff until ctx
// is cancelled.
func (ix *Indexer) StreamForever(ctx context.Context) {
	const reconnectDelay = 5 * time.Second
	for ctx.Err() == nil {
		if err := ix.RunStream(ctx); err != nil && ctx.Err() == nil {
			ix.logger.Printf("stream disconnected: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}
