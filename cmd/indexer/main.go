// Copyright 2025 zkSL Labs
//
// Indexer Process - observes the verifier program's accounts, mirrors
// them into the relational store, and reconciles commitment levels.

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"

	"github.com/zksllabs/zksealevel-anchor/pkg/config"
	"github.com/zksllabs/zksealevel-anchor/pkg/database"
	"github.com/zksllabs/zksealevel-anchor/pkg/indexer"
	"github.com/zksllabs/zksealevel-anchor/pkg/ledger"
)

func main() {
	configPath := flag.String("config", os.Getenv("ZKSL_CONFIG"), "optional YAML config overlay")
	flag.Parse()

	logger := log.New(os.Stdout, "[Indexer] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if *configPath != "" {
		if err := config.LoadFile(*configPath, cfg); err != nil {
			logger.Fatalf("Failed to load config file: %v", err)
		}
	}
	if cfg.RPCURL == "" || cfg.ProgramID == "" {
		logger.Fatal("RPC_URL and PROGRAM_ID are required")
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		logger.Fatalf("Invalid PROGRAM_ID: %v", err)
	}

	dbClient, err := database.NewClient(cfg.DatabaseURL, database.DefaultOptions, nil)
	if err != nil {
		logger.Fatalf("Failed to connect database: %v", err)
	}
	defer dbClient.Close()
	if err := dbClient.MigrateUp(context.Background()); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledgerClient := ledger.NewClient(cfg.RPCURL, programID, nil)
	defer ledgerClient.Close()

	ix := indexer.New(ledgerClient, database.NewRepositories(dbClient), cfg.ScanInterval, logger)

	// Streaming path is best-effort; polling alone is sufficient for
	// correctness.
	if cfg.RPCWSURL != "" {
		if err := ledgerClient.ConnectWS(ctx, cfg.RPCWSURL); err != nil {
			logger.Printf("Websocket unavailable, polling only: %v", err)
		} else {
			go ix.StreamForever(ctx)
		}
	}

	logger.Printf("Indexing program %s every %s", programID, cfg.ScanInterval)
	if err := ix.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Indexer stopped: %v", err)
	}
}
