// Copyright 2025 zkSL Labs
//
// Unit tests for keypair loading and the activation schedule

package aggregator

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return ed25519.NewKeyFromSeed(seed)
}

// byteValues widens b to ints: json.Marshal renders a []byte as a base64
// string, while the keyfile array format is a JSON array of numbers.
func byteValues(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func TestParseKeypairFormats(t *testing.T) {
	priv := testKey(t)

	arrayForm, err := json.Marshal(byteValues(priv))
	if err != nil {
		t.Fatalf("marshal array: %v", err)
	}
	hexForm := hex.EncodeToString(priv)
	envForm, _ := json.Marshal(map[string]string{
		"kind":       "ed25519",
		"secret_key": hexForm,
	})

	tests := []struct {
		name string
		raw  []byte
	}{
		{"json array", arrayForm},
		{"hex string", []byte(hexForm + "\n")},
		{"labelled envelope", envForm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeypair(tt.raw)
			if err != nil {
				t.Fatalf("ParseKeypair: %v", err)
			}
			if !got.Equal(priv) {
				t.Error("parsed key differs from original")
			}
		})
	}
}

func TestParseKeypairSeedOnly(t *testing.T) {
	priv := testKey(t)
	got, err := ParseKeypair([]byte(hex.EncodeToString(priv.Seed())))
	if err != nil {
		t.Fatalf("ParseKeypair: %v", err)
	}
	if !got.Equal(priv) {
		t.Error("seed-derived key differs")
	}
}

func TestParseKeypairRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "zzzz", `{"kind":"rsa","secret_key":"00"}`, "[1,2,3]"} {
		if _, err := ParseKeypair([]byte(raw)); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestLoadKeypairAllowList(t *testing.T) {
	dir := t.TempDir()
	priv := testKey(t)
	path := filepath.Join(dir, "aggregator.json")
	arrayForm, _ := json.Marshal(byteValues(priv))
	if err := os.WriteFile(path, arrayForm, 0o600); err != nil {
		t.Fatalf("write keyfile: %v", err)
	}

	if _, err := LoadKeypair(path, []string{dir}); err != nil {
		t.Fatalf("LoadKeypair inside allow-list: %v", err)
	}
	if _, err := LoadKeypair(path, []string{filepath.Join(dir, "other")}); err == nil {
		t.Error("expected rejection outside allow-list")
	}
}

func TestAllowedPubkeyCliff(t *testing.T) {
	var current, next [32]byte
	current[0] = 0xAA
	next[0] = 0xBB
	sched := Schedule{
		AggregatorPubkey:     current,
		NextAggregatorPubkey: next,
		ActivationSeq:        10,
	}

	if sched.AllowedPubkey(9) != current {
		t.Error("seq below activation should use current key")
	}
	if sched.AllowedPubkey(10) != next {
		t.Error("seq at activation should use next key")
	}
	if sched.AllowedPubkey(11) != next {
		t.Error("seq past activation should use next key")
	}
}

func TestSignCommitment(t *testing.T) {
	priv := testKey(t)
	signer, err := NewSigner(priv)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	sched := Schedule{AggregatorPubkey: signer.PublicKey(), ActivationSeq: 100}
	preimage := make([]byte, 110)
	sig, err := signer.SignCommitment(preimage, sched, 5)
	if err != nil {
		t.Fatalf("SignCommitment: %v", err)
	}
	if !Verify(signer.PublicKey(), preimage, sig) {
		t.Error("signature does not verify")
	}
}

func TestSignCommitmentKeyMismatch(t *testing.T) {
	priv := testKey(t)
	signer, _ := NewSigner(priv)

	// Schedule names a different current key; signer only matches next,
	// which activates at seq 50.
	var other [32]byte
	other[5] = 0x11
	sched := Schedule{
		AggregatorPubkey:     other,
		NextAggregatorPubkey: signer.PublicKey(),
		ActivationSeq:        50,
	}

	preimage := make([]byte, 110)
	if _, err := signer.SignCommitment(preimage, sched, 10); !errors.Is(err, ErrKeyMismatch) {
		t.Errorf("expected ErrKeyMismatch before activation, got %v", err)
	}
	if _, err := signer.SignCommitment(preimage, sched, 50); err != nil {
		t.Errorf("expected success at activation, got %v", err)
	}
}
