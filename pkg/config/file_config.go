// Copyright 2025 zkSL Labs
//
// YAML Configuration Overlay - optional config file with environment
// variable substitution. Values present in the file override the
// env-var defaults; the file path itself comes from ZKSL_CONFIG.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the subset of Config that deployments pin in a
// checked-in file rather than the environment.
type FileConfig struct {
	Ledger struct {
		RPCURL    string `yaml:"rpc_url"`
		RPCWSURL  string `yaml:"rpc_ws_url"`
		ProgramID string `yaml:"program_id"`
		ChainID   uint64 `yaml:"chain_id"`
	} `yaml:"ledger"`

	Server struct {
		ListenAddr  string `yaml:"listen_addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"server"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Indexer struct {
		MinFinalityCommitment string `yaml:"min_finality_commitment"`
		ScanIntervalMs        int    `yaml:"scan_interval_ms"`
	} `yaml:"indexer"`
}

var envSubstPattern = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// LoadFile reads a YAML overlay, substituting ${VAR} references from
// the environment, and applies non-zero values onto cfg.
func LoadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	substituted := envSubstPattern.ReplaceAllStringFunc(string(raw), func(m string) string {
		name := envSubstPattern.FindStringSubmatch(m)[1]
		return os.Getenv(name)
	})

	var fc FileConfig
	if err := yaml.Unmarshal([]byte(substituted), &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.Ledger.RPCURL != "" {
		cfg.RPCURL = fc.Ledger.RPCURL
	}
	if fc.Ledger.RPCWSURL != "" {
		cfg.RPCWSURL = fc.Ledger.RPCWSURL
	}
	if fc.Ledger.ProgramID != "" {
		cfg.ProgramID = fc.Ledger.ProgramID
	}
	if fc.Ledger.ChainID != 0 {
		cfg.ChainID = fc.Ledger.ChainID
	}
	if fc.Server.ListenAddr != "" {
		cfg.ListenAddr = fc.Server.ListenAddr
	}
	if fc.Server.MetricsAddr != "" {
		cfg.MetricsAddr = fc.Server.MetricsAddr
	}
	if fc.Database.URL != "" {
		cfg.DatabaseURL = fc.Database.URL
	}
	if fc.Indexer.MinFinalityCommitment != "" {
		cfg.MinFinalityCommitment = fc.Indexer.MinFinalityCommitment
	}
	if fc.Indexer.ScanIntervalMs != 0 {
		cfg.ScanInterval = time.Duration(fc.Indexer.ScanIntervalMs) * time.Millisecond
	}
	return nil
}
