// Copyright 2025 zkSL Labs
//
// Aggregator Keypair Loading - reads the Ed25519 signing key from disk.
// Accepted formats: 64-byte raw secret as a JSON array (ledger CLI
// style), a bare hex string, or a labelled JSON envelope. The secret is
// held in a process-local buffer and never logged.

package aggregator

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// keyEnvelope is the labelled keyfile format.
type keyEnvelope struct {
	Kind      string `json:"kind"`
	SecretKey string `json:"secret_key"`
}

// LoadKeypair reads an Ed25519 private key from path. The path must
// resolve inside one of allowedDirs when the list is non-empty.
func LoadKeypair(path string, allowedDirs []string) (ed25519.PrivateKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve keypair path: %w", err)
	}
	if len(allowedDirs) > 0 && !pathAllowed(abs, allowedDirs) {
		return nil, fmt.Errorf("keypair path %s outside allow-listed directories", abs)
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	return ParseKeypair(raw)
}

// ParseKeypair decodes keypair bytes in any of the accepted formats.
func ParseKeypair(raw []byte) (ed25519.PrivateKey, error) {
	trimmed := strings.TrimSpace(string(raw))

	// JSON array of bytes (e.g. [12,34,...], 64 entries).
	if strings.HasPrefix(trimmed, "[") {
		var secret []byte
		if err := json.Unmarshal([]byte(trimmed), &secret); err != nil {
			return nil, fmt.Errorf("parse keypair array: %w", err)
		}
		return keyFromSecret(secret)
	}

	// Labelled envelope.
	if strings.HasPrefix(trimmed, "{") {
		var env keyEnvelope
		if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
			return nil, fmt.Errorf("parse keypair envelope: %w", err)
		}
		if env.Kind != "" && env.Kind != "ed25519" {
			return nil, fmt.Errorf("unsupported keypair kind %q", env.Kind)
		}
		secret, err := hex.DecodeString(env.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("decode envelope secret: %w", err)
		}
		return keyFromSecret(secret)
	}

	// Bare hex string.
	secret, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("keypair file is neither array, envelope, nor hex: %w", err)
	}
	return keyFromSecret(secret)
}

func keyFromSecret(secret []byte) (ed25519.PrivateKey, error) {
	switch len(secret) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(secret), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(secret), nil
	default:
		return nil, fmt.Errorf("invalid secret key length %d", len(secret))
	}
}

func pathAllowed(abs string, allowedDirs []string) bool {
	for _, dir := range allowedDirs {
		d, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if abs == d || strings.HasPrefix(abs, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
