// Copyright 2025 zkSL Labs
//
// Submitter Process - accepts state-transition descriptions, mints
// content-addressed artifacts, signs domain-separated commitments, and
// submits anchors to the ledger.

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/zksllabs/zksealevel-anchor/pkg/aggregator"
	"github.com/zksllabs/zksealevel-anchor/pkg/anchor"
	"github.com/zksllabs/zksealevel-anchor/pkg/artifact"
	"github.com/zksllabs/zksealevel-anchor/pkg/config"
	"github.com/zksllabs/zksealevel-anchor/pkg/database"
	"github.com/zksllabs/zksealevel-anchor/pkg/ledger"
	"github.com/zksllabs/zksealevel-anchor/pkg/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("ZKSL_CONFIG"), "optional YAML config overlay")
	flag.Parse()

	logger := log.New(os.Stdout, "[Submitter] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if *configPath != "" {
		if err := config.LoadFile(*configPath, cfg); err != nil {
			logger.Fatalf("Failed to load config file: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Configuration invalid: %v", err)
	}

	priv, err := aggregator.LoadKeypair(cfg.AggregatorKeypairPath, cfg.KeypairAllowedDirs)
	if err != nil {
		logger.Fatalf("Failed to load aggregator keypair: %v", err)
	}
	signer, err := aggregator.NewSigner(priv)
	if err != nil {
		logger.Fatalf("Failed to initialize signer: %v", err)
	}

	store, err := artifact.NewStore(cfg.ArtifactDir)
	if err != nil {
		logger.Fatalf("Failed to initialize artifact store: %v", err)
	}

	var submitter *anchor.Submitter
	var programID solana.PublicKey
	if cfg.LocalMode {
		logger.Println("LOCAL_MODE enabled: anchors never reach the ledger")
		submitter = anchor.NewLocalSubmitter(signer, programID, cfg.ChainID, nil)
	} else {
		programID, err = solana.PublicKeyFromBase58(cfg.ProgramID)
		if err != nil {
			logger.Fatalf("Invalid PROGRAM_ID: %v", err)
		}
		ledgerClient := ledger.NewClient(cfg.RPCURL, programID, nil)
		submitter = anchor.NewSubmitter(ledgerClient, signer, solana.PrivateKey(priv), programID, cfg.ChainID, nil)
	}

	var dbClient *database.Client
	if cfg.DatabaseURL != "" {
		dbClient, err = database.NewClient(cfg.DatabaseURL, database.DefaultOptions, nil)
		if err != nil {
			logger.Fatalf("Failed to connect database: %v", err)
		}
		defer dbClient.Close()
		if err := dbClient.MigrateUp(context.Background()); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
	}

	srv := server.New(store, submitter, dbClient, server.Options{
		APIKeys:         cfg.APIKeys,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: time.Duration(cfg.RateLimitWindowMs) * time.Millisecond,
		IdempMaxEntries: cfg.IdempMaxEntries,
		MinFinality:     finalityLevel(cfg.MinFinalityCommitment),
	}, nil)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Printf("Listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
	}
}

func finalityLevel(name string) int16 {
	switch name {
	case "processed":
		return database.CommitmentProcessed
	case "finalized":
		return database.CommitmentFinalized
	default:
		return database.CommitmentConfirmed
	}
}
