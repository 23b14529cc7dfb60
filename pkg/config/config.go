// Copyright 2025 zkSL Labs
//
// Configuration Loader - reads recognized environment variables for the
// submitter and indexer processes. Unrecognized variables are ignored.
//
// SECURITY: Required variables have no defaults. Call Validate() after
// Load() before starting either process; production deployments refuse
// default database credentials.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the anchor core processes.
type Config struct {
	// Ledger Configuration
	RPCURL    string
	RPCWSURL  string
	ProgramID string
	ChainID   uint64

	// Aggregator Key Configuration
	AggregatorKeypairPath string
	KeypairAllowedDirs    []string

	// Artifact Storage
	ArtifactDir string

	// Server Configuration
	ListenAddr  string
	MetricsAddr string

	// Database Configuration
	DatabaseURL string

	// Indexer Configuration
	MinFinalityCommitment string // processed | confirmed | finalized
	ScanInterval          time.Duration

	// Local Mode (never contacts the ledger)
	LocalMode bool

	// Security Configuration
	APIKeys []string

	// Rate Limiting
	RateLimitMax      int
	RateLimitWindowMs int

	// Idempotency Cache
	IdempMaxEntries int

	// Service Configuration
	Environment string
	LogLevel    string
}

// Load reads configuration from environment variables.
//
// This service only reads these specific variable names: RPC_URL,
// RPC_WS_URL, PROGRAM_ID, CHAIN_ID, AGGREGATOR_KEYPAIR_PATH,
// AGGREGATOR_KEYPAIR_DIRS, ARTIFACT_DIR, LISTEN_ADDR, METRICS_ADDR,
// DATABASE_URL, MIN_FINALITY_COMMITMENT, SCAN_INTERVAL_MS, LOCAL_MODE,
// API_KEYS, RATELIMIT_MAX, RATELIMIT_WINDOW_MS, IDEMP_MAX_ENTRIES,
// ENVIRONMENT, LOG_LEVEL.
func Load() (*Config, error) {
	cfg := &Config{
		RPCURL:   getEnv("RPC_URL", ""),
		RPCWSURL: getEnv("RPC_WS_URL", ""),

		ProgramID: getEnv("PROGRAM_ID", ""),
		ChainID:   getEnvUint64("CHAIN_ID", 0),

		AggregatorKeypairPath: getEnv("AGGREGATOR_KEYPAIR_PATH", ""),
		KeypairAllowedDirs:    splitList(getEnv("AGGREGATOR_KEYPAIR_DIRS", "")),

		ArtifactDir: getEnv("ARTIFACT_DIR", "./artifacts"),

		ListenAddr:  getEnv("LISTEN_ADDR", "0.0.0.0:8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		MinFinalityCommitment: getEnv("MIN_FINALITY_COMMITMENT", "confirmed"),
		ScanInterval:          time.Duration(getEnvInt("SCAN_INTERVAL_MS", 20000)) * time.Millisecond,

		LocalMode: getEnvBool("LOCAL_MODE", false),

		APIKeys: splitList(getEnv("API_KEYS", "")),

		RateLimitMax:      getEnvInt("RATELIMIT_MAX", 60),
		RateLimitWindowMs: getEnvInt("RATELIMIT_WINDOW_MS", 60000),

		IdempMaxEntries: getEnvInt("IDEMP_MAX_ENTRIES", 10000),

		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and secure.
func (c *Config) Validate() error {
	var problems []string

	if !c.LocalMode {
		if c.RPCURL == "" {
			problems = append(problems, "RPC_URL is required but not set")
		}
		if c.ProgramID == "" {
			problems = append(problems, "PROGRAM_ID is required but not set")
		}
		if c.ChainID == 0 {
			problems = append(problems, "CHAIN_ID is required but not set")
		}
	}
	if c.AggregatorKeypairPath == "" {
		problems = append(problems, "AGGREGATOR_KEYPAIR_PATH is required but not set")
	}

	switch c.MinFinalityCommitment {
	case "processed", "confirmed", "finalized":
	default:
		problems = append(problems, fmt.Sprintf(
			"MIN_FINALITY_COMMITMENT must be processed, confirmed, or finalized (got %q)", c.MinFinalityCommitment))
	}

	if c.IsProduction() {
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required in production")
		}
		if hasDefaultCredentials(c.DatabaseURL) {
			problems = append(problems, "DATABASE_URL must not use default credentials in production")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration invalid:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// IsProduction reports whether this deployment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func hasDefaultCredentials(url string) bool {
	for _, cred := range []string{"postgres:postgres@", "postgres:password@", "root:root@"} {
		if strings.Contains(url, cred) {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvUint64(key string, fallback uint64) uint64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}
