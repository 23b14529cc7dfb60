// Copyright 2025 zkSL Labs
//
// Anchor Submission Orchestrator - derives the next sequence, validates
// activation and chain id, assembles the three-instruction transaction
// (compute budget + signature pre-verification + anchor call), and
// submits it to the ledger. Local races on the sequence number are
// expected; the on-chain monotonicity check is authoritative and a
// losing submitter retries with a re-read sequence.

package anchor

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/zksllabs/zksealevel-anchor/pkg/aggregator"
	"github.com/zksllabs/zksealevel-anchor/pkg/anchorprog"
	"github.com/zksllabs/zksealevel-anchor/pkg/apierr"
	"github.com/zksllabs/zksealevel-anchor/pkg/artifact"
	"github.com/zksllabs/zksealevel-anchor/pkg/commitment"
)

// ComputeUnitLimit is the budget requested for the anchor transaction.
const ComputeUnitLimit = 200_000

// seqRetryLimit bounds retries after an on-chain NonMonotonicSeq loss.
const seqRetryLimit = 3

// LedgerAccess is the subset of the ledger client the submitter uses.
type LedgerAccess interface {
	FetchConfig(ctx context.Context) (*anchorprog.Config, error)
	FetchLastSeq(ctx context.Context) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Result is the outcome of a successful anchor submission.
type Result struct {
	Seq                 uint64
	AggregatorSignature []byte
	DsHash              [32]byte
	TransactionID       string
}

// Submitter orchestrates anchor submissions for one aggregator key.
type Submitter struct {
	ledger    LedgerAccess
	signer    *aggregator.Signer
	payer     solana.PrivateKey
	programID solana.PublicKey
	chainID   uint64

	localMode bool
	localSeq  atomic.Uint64

	logger *log.Logger
	now    func() time.Time
}

// NewSubmitter wires the orchestrator. payer signs the ledger
// transaction and pays fees; it is derived from the aggregator secret
// when the deployment uses a single key.
func NewSubmitter(l LedgerAccess, signer *aggregator.Signer, payer solana.PrivateKey, programID solana.PublicKey, chainID uint64, logger *log.Logger) *Submitter {
	if logger == nil {
		logger = log.New(log.Writer(), "[Anchor] ", log.LstdFlags)
	}
	return &Submitter{
		ledger:    l,
		signer:    signer,
		payer:     payer,
		programID: programID,
		chainID:   chainID,
		logger:    logger,
		now:       time.Now,
	}
}

// NewLocalSubmitter builds a submitter that never contacts the ledger:
// the sequence is a process-local counter and the transaction id is
// synthesized from the commitment digest.
func NewLocalSubmitter(signer *aggregator.Signer, programID solana.PublicKey, chainID uint64, logger *log.Logger) *Submitter {
	s := NewSubmitter(nil, signer, nil, programID, chainID, logger)
	s.localMode = true
	return s
}

// Anchor signs and submits the commitment for an artifact whose
// canonical encoding is artifactLen bytes.
func (s *Submitter) Anchor(ctx context.Context, art *artifact.Artifact, artifactLen uint32) (*Result, error) {
	proofHash, err := art.ProofHash()
	if err != nil {
		return nil, apierr.Wrap(apierr.BadRequest, "compute proof hash", err)
	}

	if s.localMode {
		return s.anchorLocal(art, proofHash)
	}

	cfg, err := s.ledger.FetchConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.ChainID != s.chainID {
		return nil, apierr.Newf(apierr.ChainIDMismatch,
			"configured chain id %d, on-chain %d", s.chainID, cfg.ChainID)
	}

	sched := aggregator.Schedule{
		AggregatorPubkey:     cfg.AggregatorPubkey,
		NextAggregatorPubkey: cfg.NextAggregatorPubkey,
		ActivationSeq:        cfg.ActivationSeq,
	}

	var lastErr error
	for attempt := 0; attempt < seqRetryLimit; attempt++ {
		lastSeq, err := s.ledger.FetchLastSeq(ctx)
		if err != nil {
			return nil, err
		}
		seq := lastSeq + 1

		res, err := s.submitOnce(ctx, art, proofHash, sched, seq, artifactLen)
		if err == nil {
			return res, nil
		}
		var ae *apierr.Error
		if errors.As(err, &ae) && ae.Kind == apierr.NonMonotonicSeq {
			s.logger.Printf("seq %d lost the monotonicity race, re-reading", seq)
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *Submitter) submitOnce(ctx context.Context, art *artifact.Artifact, proofHash [32]byte, sched aggregator.Schedule, seq uint64, artifactLen uint32) (*Result, error) {
	params := commitment.Params{
		ChainID:   s.chainID,
		ProgramID: s.programID,
		ProofHash: proofHash,
		StartSlot: art.StartSlot,
		EndSlot:   art.EndSlot,
		Seq:       seq,
	}
	preimage, err := commitment.Preimage(params)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "build commitment preimage", err)
	}
	dsHash, err := commitment.Digest(params)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "build commitment digest", err)
	}

	sig, err := s.signer.SignCommitment(preimage, sched, seq)
	if err != nil {
		if errors.Is(err, aggregator.ErrKeyMismatch) {
			return nil, apierr.Wrap(apierr.AggregatorKeyMismatch, "signing key not allowed for sequence", err)
		}
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "sign commitment", err)
	}

	tx, err := s.buildTransaction(ctx, art, proofHash, dsHash, preimage, sig, seq, artifactLen)
	if err != nil {
		return nil, err
	}

	txSig, err := s.ledger.Submit(ctx, tx)
	if err != nil {
		return nil, anchorprog.MapSubmitError(err)
	}

	s.logger.Printf("anchored seq=%d range=[%d,%d] tx=%s", seq, art.StartSlot, art.EndSlot, txSig)
	return &Result{
		Seq:                 seq,
		AggregatorSignature: sig,
		DsHash:              dsHash,
		TransactionID:       txSig.String(),
	}, nil
}

func (s *Submitter) buildTransaction(ctx context.Context, art *artifact.Artifact, proofHash, dsHash [32]byte, preimage, aggregatorSig []byte, seq uint64, artifactLen uint32) (*solana.Transaction, error) {
	allowed := s.signer.PublicKey()

	record := &anchorprog.ProofRecord{
		ProofHash:        proofHash,
		Seq:              seq,
		StartSlot:        art.StartSlot,
		EndSlot:          art.EndSlot,
		ArtifactLen:      artifactLen,
		AggregatorPubkey: allowed,
		Timestamp:        s.now().Unix(),
		DsHash:           dsHash,
	}
	id := artifact.IDFromProofHash(proofHash)
	copy(record.ArtifactID[:], id[:])
	if err := decodeHex32(art.StateRootBefore, &record.StateRootBefore); err != nil {
		return nil, apierr.Wrap(apierr.BadRequest, "state_root_before", err)
	}
	if err := decodeHex32(art.StateRootAfter, &record.StateRootAfter); err != nil {
		return nil, apierr.Wrap(apierr.BadRequest, "state_root_after", err)
	}

	payload, err := anchorprog.EncodeAnchorPayload(record)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "encode anchor payload", err)
	}

	sigCheckIx, err := NewEd25519Instruction(allowed, aggregatorSig, preimage)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "build ed25519 instruction", err)
	}

	anchorIx, err := s.buildAnchorInstruction(proofHash, seq, payload)
	if err != nil {
		return nil, err
	}

	blockhash, err := s.ledger.LatestBlockhash(ctx)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "fetch blockhash", err)
	}

	payerPub := s.payer.PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			NewComputeBudgetInstruction(ComputeUnitLimit),
			sigCheckIx,
			anchorIx,
		},
		blockhash,
		solana.TransactionPayer(payerPub),
	)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "assemble transaction", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payerPub) {
			return &s.payer
		}
		return nil
	})
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "sign transaction", err)
	}
	return tx, nil
}

// buildAnchorInstruction composes the anchor call with the documented
// key order: fee payer, config, aggregator state, range state, proof
// record, instructions sysvar, system program.
func (s *Submitter) buildAnchorInstruction(proofHash [32]byte, seq uint64, payload []byte) (solana.Instruction, error) {
	configPDA, _, err := anchorprog.ConfigPDA(s.programID)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "derive config PDA", err)
	}
	aggPDA, _, err := anchorprog.AggregatorStatePDA(s.programID)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "derive aggregator PDA", err)
	}
	rangePDA, _, err := anchorprog.RangeStatePDA(s.programID)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "derive range PDA", err)
	}
	proofPDA, _, err := anchorprog.ProofRecordPDA(s.programID, proofHash, seq)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "derive proof PDA", err)
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(s.payer.PublicKey(), true, true),
		solana.NewAccountMeta(configPDA, true, false),
		solana.NewAccountMeta(aggPDA, true, false),
		solana.NewAccountMeta(rangePDA, true, false),
		solana.NewAccountMeta(proofPDA, true, false),
		solana.NewAccountMeta(anchorprog.SysvarInstructionsPubkey, false, false),
		solana.NewAccountMeta(anchorprog.SystemProgramID, false, false),
	}
	return solana.NewInstruction(s.programID, accounts, payload), nil
}

// anchorLocal signs the commitment with a process-local sequence and a
// synthesized transaction id, never touching the ledger.
func (s *Submitter) anchorLocal(art *artifact.Artifact, proofHash [32]byte) (*Result, error) {
	seq := s.localSeq.Add(1)

	params := commitment.Params{
		ChainID:   s.chainID,
		ProgramID: s.programID,
		ProofHash: proofHash,
		StartSlot: art.StartSlot,
		EndSlot:   art.EndSlot,
		Seq:       seq,
	}
	preimage, err := commitment.Preimage(params)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "build commitment preimage", err)
	}
	dsHash, err := commitment.Digest(params)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "build commitment digest", err)
	}

	// Local mode trusts the loaded key unconditionally.
	sched := aggregator.Schedule{AggregatorPubkey: s.signer.PublicKey(), ActivationSeq: ^uint64(0)}
	sig, err := s.signer.SignCommitment(preimage, sched, seq)
	if err != nil {
		return nil, apierr.Wrap(apierr.AnchorSubmitFailed, "sign commitment", err)
	}

	return &Result{
		Seq:                 seq,
		AggregatorSignature: sig,
		DsHash:              dsHash,
		TransactionID:       "LOCAL-" + hex.EncodeToString(dsHash[:16]),
	}, nil
}

func decodeHex32(s string, out *[32]byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return nil
}
