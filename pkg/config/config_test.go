// Copyright 2025 zkSL Labs
//
// Unit tests for configuration loading and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func loadWith(t *testing.T, env map[string]string) *Config {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadWith(t, nil)
	if cfg.RateLimitMax != 60 || cfg.RateLimitWindowMs != 60000 {
		t.Errorf("rate limit defaults: %d/%dms", cfg.RateLimitMax, cfg.RateLimitWindowMs)
	}
	if cfg.ScanInterval != 20*time.Second {
		t.Errorf("scan interval default: %v", cfg.ScanInterval)
	}
	if cfg.MinFinalityCommitment != "confirmed" {
		t.Errorf("finality default: %s", cfg.MinFinalityCommitment)
	}
	if cfg.LocalMode {
		t.Error("local mode should default off")
	}
}

func TestValidateRequiresLedgerConfig(t *testing.T) {
	cfg := loadWith(t, map[string]string{
		"AGGREGATOR_KEYPAIR_PATH": "/keys/agg.json",
	})
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure without RPC_URL")
	}
	if !strings.Contains(err.Error(), "RPC_URL") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateLocalModeSkipsLedger(t *testing.T) {
	cfg := loadWith(t, map[string]string{
		"LOCAL_MODE":              "true",
		"AGGREGATOR_KEYPAIR_PATH": "/keys/agg.json",
	})
	if err := cfg.Validate(); err != nil {
		t.Errorf("local mode should not require ledger config: %v", err)
	}
}

func TestValidateRejectsDefaultCredentialsInProduction(t *testing.T) {
	cfg := loadWith(t, map[string]string{
		"ENVIRONMENT":             "production",
		"RPC_URL":                 "http://node:8899",
		"PROGRAM_ID":              "zkSL111",
		"CHAIN_ID":                "1",
		"AGGREGATOR_KEYPAIR_PATH": "/keys/agg.json",
		"DATABASE_URL":            "postgres://postgres:postgres@db/zksl",
	})
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "default credentials") {
		t.Errorf("expected default-credentials rejection, got %v", err)
	}
}

func TestValidateFinalityEnum(t *testing.T) {
	cfg := loadWith(t, map[string]string{
		"LOCAL_MODE":              "true",
		"AGGREGATOR_KEYPAIR_PATH": "/keys/agg.json",
		"MIN_FINALITY_COMMITMENT": "instant",
	})
	if err := cfg.Validate(); err == nil {
		t.Error("expected rejection of unknown finality level")
	}
}

func TestAPIKeysList(t *testing.T) {
	cfg := loadWith(t, map[string]string{"API_KEYS": "alpha, beta ,,gamma"})
	if len(cfg.APIKeys) != 3 || cfg.APIKeys[1] != "beta" {
		t.Errorf("API keys parsed as %v", cfg.APIKeys)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("TEST_DB_PASS", "s3cret")
	dir := t.TempDir()
	path := filepath.Join(dir, "zksl.yaml")
	content := `
ledger:
  rpc_url: http://file-node:8899
  chain_id: 7
database:
  url: postgres://zksl:${TEST_DB_PASS}@db/zksl
indexer:
  scan_interval_ms: 5000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg := loadWith(t, nil)
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.RPCURL != "http://file-node:8899" || cfg.ChainID != 7 {
		t.Errorf("ledger overlay not applied: %s %d", cfg.RPCURL, cfg.ChainID)
	}
	if cfg.DatabaseURL != "postgres://zksl:s3cret@db/zksl" {
		t.Errorf("env substitution failed: %s", cfg.DatabaseURL)
	}
	if cfg.ScanInterval != 5*time.Second {
		t.Errorf("scan interval overlay: %v", cfg.ScanInterval)
	}
	// Env-var defaults survive where the file is silent.
	if cfg.MinFinalityCommitment != "confirmed" {
		t.Errorf("unexpected finality: %s", cfg.MinFinalityCommitment)
	}
}
