// Copyright 2025 zkSL Labs
//
// Indexer / Reconciliation Engine - reads the verifier program's
// accounts back into the relational store and reconciles transient
// commitment levels to finality. The polling loop and the
// reconciliation pass run sequentially within one cycle; the streaming
// callback shares nothing with them beyond the database.

package indexer

import (
	"context"
	"log"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/google/uuid"

	"github.com/zksllabs/zksealevel-anchor/pkg/anchorprog"
	"github.com/zksllabs/zksealevel-anchor/pkg/database"
)

// LedgerSource is the subset of the ledger client the indexer reads.
type LedgerSource interface {
	ProgramAccounts(ctx context.Context) (rpc.GetProgramAccountsResult, error)
	EarliestSignatureFor(ctx context.Context, addr solana.PublicKey) (solana.Signature, error)
	SignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error)
	SubscribeProgram(commitment rpc.CommitmentType) (*ws.ProgramSubscription, error)
}

// DefaultScanInterval is the polling cadence.
const DefaultScanInterval = 20 * time.Second

// reconcileBatchSize bounds one reconciliation pass.
const reconcileBatchSize = 100

// dropAfter is how long a processed row may wait before an unknown
// signature means the transaction was dropped.
const dropAfter = 60 * time.Second

// Indexer drives the polling and reconciliation loops.
type Indexer struct {
	ledger LedgerSource
	repos  *database.Repositories
	logger *log.Logger

	scanInterval time.Duration
	now          func() time.Time
}

// New creates an indexer.
func New(l LedgerSource, repos *database.Repositories, scanInterval time.Duration, logger *log.Logger) *Indexer {
	if logger == nil {
		logger = log.New(log.Writer(), "[Indexer] ", log.LstdFlags)
	}
	if scanInterval <= 0 {
		scanInterval = DefaultScanInterval
	}
	return &Indexer{
		ledger:       l,
		repos:        repos,
		logger:       logger,
		scanInterval: scanInterval,
		now:          time.Now,
	}
}

// Run executes the polling loop until ctx is cancelled. The first scan
// happens immediately so a restarted indexer catches up without waiting
// a full interval.
func (ix *Indexer) Run(ctx context.Context) error {
	ix.cycle(ctx)

	ticker := time.NewTicker(ix.scanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ix.cycle(ctx)
		}
	}
}

// cycle runs one scan followed by one reconciliation pass. Transient
// failures are logged and retried next cycle.
func (ix *Indexer) cycle(ctx context.Context) {
	if err := ix.scan(ctx); err != nil {
		ix.logger.Printf("scan failed, will retry next cycle: %v", err)
	}
	if err := ix.reconcile(ctx); err != nil {
		ix.logger.Printf("reconciliation failed, will retry next cycle: %v", err)
	}
}

// scan fetches all program accounts, upserts validator records, and
// upserts proof records whose end slot advances past the cursor,
// resolving each one's writer signature and confirmation status.
func (ix *Indexer) scan(ctx context.Context) error {
	scansTotal.Inc()
	if err := ix.repos.IndexerState.StampScan(ctx, ix.now().UTC()); err != nil {
		return err
	}
	state, err := ix.repos.IndexerState.Get(ctx)
	if err != nil {
		return err
	}

	accounts, err := ix.ledger.ProgramAccounts(ctx)
	if err != nil {
		return err
	}

	maxEndSlot := state.LastSeenSlot
	var lastSignature string

	for _, acc := range accounts {
		data := acc.Account.Data.GetBinary()
		switch anchorprog.RecordKind(data) {
		case "ValidatorRecord":
			if err := ix.upsertValidator(ctx, data); err != nil {
				decodeFailures.Inc()
				ix.logger.Printf("validator record %s: %v", acc.Pubkey, err)
			}
		case "ProofRecord":
			record, err := anchorprog.DecodeProofRecord(data)
			if err != nil {
				decodeFailures.Inc()
				ix.logger.Printf("proof record %s: %v", acc.Pubkey, err)
				continue
			}
			if int64(record.EndSlot) <= state.LastSeenSlot {
				continue
			}
			sig, level, err := ix.resolveWriter(ctx, acc.Pubkey)
			if err != nil {
				ix.logger.Printf("resolve writer for %s: %v", acc.Pubkey, err)
				continue
			}
			if err := ix.upsertProof(ctx, record, sig, level); err != nil {
				ix.logger.Printf("upsert proof seq=%d: %v", record.Seq, err)
				continue
			}
			proofsIndexed.Inc()
			if int64(record.EndSlot) > maxEndSlot {
				maxEndSlot = int64(record.EndSlot)
			}
			if level >= database.CommitmentConfirmed && sig != "" {
				lastSignature = sig
			}
		}
	}

	return ix.repos.IndexerState.AdvanceCursor(ctx, maxEndSlot, lastSignature)
}

// resolveWriter finds the earliest signature that wrote addr and its
// confirmation status.
func (ix *Indexer) resolveWriter(ctx context.Context, addr solana.PublicKey) (string, int16, error) {
	sig, err := ix.ledger.EarliestSignatureFor(ctx, addr)
	if err != nil {
		return "", 0, err
	}
	if sig == (solana.Signature{}) {
		return "", database.CommitmentProcessed, nil
	}
	status, err := ix.ledger.SignatureStatus(ctx, sig)
	if err != nil {
		return "", 0, err
	}
	return sig.String(), commitmentLevel(status), nil
}

func (ix *Indexer) upsertValidator(ctx context.Context, data []byte) error {
	record, err := anchorprog.DecodeValidatorRecord(data)
	if err != nil {
		return err
	}
	v := validatorRow(record, ix.now().UTC())
	if err := ix.repos.Validators.Upsert(ctx, v); err != nil {
		return err
	}
	validatorsIndexed.Inc()
	return nil
}

func (ix *Indexer) upsertProof(ctx context.Context, r *anchorprog.ProofRecord, txid string, level int16) error {
	return ix.repos.Proofs.Upsert(ctx, &database.Proof{
		ProofHash:        r.ProofHash[:],
		Seq:              int64(r.Seq),
		ArtifactID:       uuid.UUID(r.ArtifactID),
		StartSlot:        int64(r.StartSlot),
		EndSlot:          int64(r.EndSlot),
		DsHash:           r.DsHash[:],
		ArtifactLen:      int32(r.ArtifactLen),
		StateRootBefore:  r.StateRootBefore[:],
		StateRootAfter:   r.StateRootAfter[:],
		AggregatorPubkey: solana.PublicKeyFromBytes(r.AggregatorPubkey[:]).String(),
		Ts:               time.Unix(r.Timestamp, 0).UTC(),
		CommitmentLevel:  level,
		Txid:             txid,
	})
}

// reconcile re-queries signature status for up to 100 rows below the
// finalized level, oldest first. Unknown signatures older than the drop
// window are purged; confirmed/finalized statuses bump the stored level.
func (ix *Indexer) reconcile(ctx context.Context) error {
	pending, err := ix.repos.Proofs.SelectPending(ctx, reconcileBatchSize)
	if err != nil {
		return err
	}

	for _, p := range pending {
		if p.Txid == "" {
			// Never resolved to a transaction; purge once stale.
			if ix.now().Sub(p.CreatedAt) > dropAfter {
				if err := ix.repos.Proofs.Delete(ctx, p.ProofHash, p.Seq); err != nil {
					ix.logger.Printf("purge unresolved proof seq=%d: %v", p.Seq, err)
				} else {
					proofsPurged.Inc()
				}
			}
			continue
		}

		sig, err := solana.SignatureFromBase58(p.Txid)
		if err != nil {
			ix.logger.Printf("proof seq=%d has malformed txid %q", p.Seq, p.Txid)
			continue
		}
		status, err := ix.ledger.SignatureStatus(ctx, sig)
		if err != nil {
			ix.logger.Printf("signature status for seq=%d: %v", p.Seq, err)
			continue
		}

		if status == nil {
			// The ledger has no record of this transaction; presumed
			// dropped once the row has aged past the window.
			if ix.now().Sub(p.CreatedAt) > dropAfter {
				if err := ix.repos.Proofs.Delete(ctx, p.ProofHash, p.Seq); err != nil {
					ix.logger.Printf("purge dropped proof seq=%d: %v", p.Seq, err)
				} else {
					proofsPurged.Inc()
				}
			}
			continue
		}

		if level := commitmentLevel(status); level > p.CommitmentLevel {
			if err := ix.repos.Proofs.UpdateCommitmentLevel(ctx, p.ProofHash, p.Seq, level); err != nil {
				ix.logger.Printf("bump level for seq=%d: %v", p.Seq, err)
			} else {
				proofsReconciled.Inc()
			}
		}
	}

	return ix.repos.IndexerState.StampReconciled(ctx, ix.now().UTC())
}

// commitmentLevel maps a ledger confirmation status onto the stored
// {0 processed, 1 confirmed, 2 finalized} grades.
func commitmentLevel(status *rpc.SignatureStatusesResult) int16 {
	if status == nil {
		return database.CommitmentProcessed
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		return database.CommitmentFinalized
	case rpc.ConfirmationStatusConfirmed:
		return database.CommitmentConfirmed
	default:
		return database.CommitmentProcessed
	}
}

func validatorRow(r *anchorprog.ValidatorRecord, seen time.Time) *database.Validator {
	v := &database.Validator{
		Pubkey:     solana.PublicKeyFromBytes(r.Pubkey[:]).String(),
		Status:     r.Status.String(),
		Escrow:     solana.PublicKeyFromBytes(r.Escrow[:]).String(),
		NumAccepts: int64(r.NumAccepts),
		LastSeen:   seen,
	}
	if r.LockTs != 0 {
		ts := time.Unix(r.LockTs, 0).UTC()
		if r.Status == anchorprog.ValidatorUnlocked {
			v.UnlockTs = &ts
		} else {
			v.LockTs = &ts
		}
	}
	return v
}
