// Copyright 2025 zkSL Labs
//
// Ledger Client - read/submit access to the external ledger node. Wraps
// the RPC and websocket clients and decodes the verifier program's
// records at their derived addresses. The submitter reads configuration
// and sequencing state here; the indexer reads program accounts and
// signature statuses.

package ledger

import (
	"context"
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"

	"github.com/zksllabs/zksealevel-anchor/pkg/anchorprog"
	"github.com/zksllabs/zksealevel-anchor/pkg/apierr"
)

// Client provides typed access to the verifier program's on-ledger state.
type Client struct {
	rpc       *rpc.Client
	ws        *ws.Client
	programID solana.PublicKey
	logger    *log.Logger
}

// NewClient connects the RPC endpoint. The websocket client is optional
// and only required for the streaming path.
func NewClient(rpcURL string, programID solana.PublicKey, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.Writer(), "[Ledger] ", log.LstdFlags)
	}
	return &Client{
		rpc:       rpc.New(rpcURL),
		programID: programID,
		logger:    logger,
	}
}

// ConnectWS attaches a websocket client for account-change streaming.
func (c *Client) ConnectWS(ctx context.Context, wsURL string) error {
	wsClient, err := ws.Connect(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	c.ws = wsClient
	return nil
}

// ProgramID returns the verifier program address.
func (c *Client) ProgramID() solana.PublicKey {
	return c.programID
}

// RPC exposes the underlying RPC client.
func (c *Client) RPC() *rpc.Client {
	return c.rpc
}

// FetchConfig reads and decodes the configuration record.
func (c *Client) FetchConfig(ctx context.Context) (*anchorprog.Config, error) {
	addr, _, err := anchorprog.ConfigPDA(c.programID)
	if err != nil {
		return nil, err
	}
	data, err := c.accountData(ctx, addr)
	if err != nil {
		return nil, apierr.Wrap(apierr.ConfigNotFound, "configuration record unavailable", err)
	}
	if data == nil {
		return nil, apierr.New(apierr.ConfigNotFound, "configuration record absent")
	}
	cfg, err := anchorprog.DecodeConfig(data)
	if err != nil {
		return nil, apierr.Wrap(apierr.ConfigNotFound, "configuration record malformed", err)
	}
	return cfg, nil
}

// FetchLastSeq reads the aggregator-state record. An absent record
// yields 0; a transport failure is FetchLastSeqFailed.
func (c *Client) FetchLastSeq(ctx context.Context) (uint64, error) {
	addr, _, err := anchorprog.AggregatorStatePDA(c.programID)
	if err != nil {
		return 0, err
	}
	data, err := c.accountData(ctx, addr)
	if err != nil {
		return 0, apierr.Wrap(apierr.FetchLastSeqFailed, "cannot read aggregator state", err)
	}
	if data == nil {
		return 0, nil
	}
	state, err := anchorprog.DecodeAggregatorState(data)
	if err != nil {
		return 0, apierr.Wrap(apierr.FetchLastSeqFailed, "aggregator state malformed", err)
	}
	return state.LastSeq, nil
}

// FetchRangeState reads the range-state record; nil if absent.
func (c *Client) FetchRangeState(ctx context.Context) (*anchorprog.RangeState, error) {
	addr, _, err := anchorprog.RangeStatePDA(c.programID)
	if err != nil {
		return nil, err
	}
	data, err := c.accountData(ctx, addr)
	if err != nil || data == nil {
		return nil, err
	}
	return anchorprog.DecodeRangeState(data)
}

// accountData fetches raw account bytes; nil data means the account
// does not exist.
func (c *Client) accountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	info, err := c.rpc.GetAccountInfo(ctx, addr)
	if err != nil {
		if err == rpc.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	if info.Value == nil {
		return nil, nil
	}
	return info.Value.Data.GetBinary(), nil
}

// LatestBlockhash fetches a recent blockhash for transaction assembly.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return recent.Value.Blockhash, nil
}

// Submit broadcasts a signed transaction without preflight; the
// verifier's own checks are authoritative.
func (c *Client) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight: true,
	})
	if err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

// ProgramAccounts fetches every account owned by the verifier program.
func (c *Client) ProgramAccounts(ctx context.Context) (rpc.GetProgramAccountsResult, error) {
	out, err := c.rpc.GetProgramAccounts(ctx, c.programID)
	if err != nil {
		return nil, fmt.Errorf("get program accounts: %w", err)
	}
	return out, nil
}

// EarliestSignatureFor resolves the earliest transaction signature that
// wrote addr, or a zero signature when none exists.
func (c *Client) EarliestSignatureFor(ctx context.Context, addr solana.PublicKey) (solana.Signature, error) {
	sigs, err := c.rpc.GetSignaturesForAddress(ctx, addr)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get signatures for %s: %w", addr, err)
	}
	if len(sigs) == 0 {
		return solana.Signature{}, nil
	}
	// Results are newest-first; the writer transaction is the oldest.
	return sigs[len(sigs)-1].Signature, nil
}

// SignatureStatus queries the confirmation status for a signature. A
// nil result means the ledger has no record of it.
func (c *Client) SignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("get signature status: %w", err)
	}
	if out == nil || len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

// SubscribeProgram opens an account-change subscription for the
// verifier program. ConnectWS must have been called.
func (c *Client) SubscribeProgram(commitment rpc.CommitmentType) (*ws.ProgramSubscription, error) {
	if c.ws == nil {
		return nil, fmt.Errorf("websocket client not connected")
	}
	sub, err := c.ws.ProgramSubscribeWithOpts(c.programID, commitment, solana.EncodingBase64, nil)
	if err != nil {
		return nil, fmt.Errorf("program subscribe: %w", err)
	}
	return sub, nil
}

// Close releases the websocket connection.
func (c *Client) Close() {
	if c.ws != nil {
		c.ws.Close()
	}
}
