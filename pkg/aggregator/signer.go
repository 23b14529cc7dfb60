// Copyright 2025 zkSL Labs
//
// Aggregator Signer - produces detached Ed25519 signatures over the
// 110-byte commitment preimage and enforces the current-vs-next key
// schedule by sequence number. Key rotation is a cliff: the first seq at
// or past activation_seq uses the next key, with no overlap window.

package aggregator

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
)

// ErrKeyMismatch is returned when the locally-loaded public key is not
// the allowed pubkey for the sequence being anchored.
var ErrKeyMismatch = errors.New("aggregator key mismatch")

// Schedule is the on-chain key schedule read from the configuration
// record.
type Schedule struct {
	AggregatorPubkey     [32]byte
	NextAggregatorPubkey [32]byte
	ActivationSeq        uint64
}

// AllowedPubkey returns the pubkey permitted to sign for seq.
func (s Schedule) AllowedPubkey(seq uint64) [32]byte {
	if seq >= s.ActivationSeq {
		return s.NextAggregatorPubkey
	}
	return s.AggregatorPubkey
}

// Signer holds the aggregator keypair. The private key never leaves
// the process and is never logged.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewSigner wraps a loaded private key.
func NewSigner(priv ed25519.PrivateKey) (*Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key size: expected %d, got %d", ed25519.PrivateKeySize, len(priv))
	}
	return &Signer{
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// PublicKey returns the signer's 32-byte public key.
func (s *Signer) PublicKey() [32]byte {
	var pk [32]byte
	copy(pk[:], s.pub)
	return pk
}

// SignCommitment signs the 110-byte preimage (not its digest) after
// checking that this signer holds the allowed key for seq.
func (s *Signer) SignCommitment(preimage []byte, sched Schedule, seq uint64) ([]byte, error) {
	allowed := sched.AllowedPubkey(seq)
	if !bytes.Equal(s.pub, allowed[:]) {
		return nil, fmt.Errorf("%w: local key does not match allowed key for seq %d", ErrKeyMismatch, seq)
	}
	return ed25519.Sign(s.priv, preimage), nil
}

// Verify checks a detached signature against a public key.
func Verify(pub [32]byte, message, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), message, sig)
}
