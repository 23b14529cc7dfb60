// Copyright 2025 zkSL Labs
//
// Unit tests for the commitment preimage and digest

package commitment

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/zksllabs/zksealevel-anchor/pkg/canonical"
)

func katParams() Params {
	// chain_id = 1, program_id = 32 x 0x00, proof_hash = 32 x 0x00,
	// start = end = seq = 1.
	return Params{
		ChainID:   1,
		ProgramID: solana.PublicKey{},
		ProofHash: [32]byte{},
		StartSlot: 1,
		EndSlot:   1,
		Seq:       1,
	}
}

func TestPreimageLayout(t *testing.T) {
	pre, err := Preimage(katParams())
	if err != nil {
		t.Fatalf("Preimage: %v", err)
	}
	if len(pre) != PreimageLen {
		t.Fatalf("preimage length = %d, want %d", len(pre), PreimageLen)
	}

	if !bytes.Equal(pre[:14], []byte(DomainV1)) {
		t.Errorf("domain literal = %q", pre[:14])
	}
	if !bytes.Equal(pre[14:22], canonical.U64LE(1)) {
		t.Errorf("chain id bytes = %x", pre[14:22])
	}
	// program id and proof hash are all-zero in the KAT vector
	if !bytes.Equal(pre[22:86], make([]byte, 64)) {
		t.Errorf("program id / proof hash not zero: %x", pre[22:86])
	}
	if !bytes.Equal(pre[86:94], canonical.U64LE(1)) || !bytes.Equal(pre[94:102], canonical.U64LE(1)) {
		t.Errorf("slot bytes wrong: %x %x", pre[86:94], pre[94:102])
	}
	if !bytes.Equal(pre[102:110], canonical.U64LE(1)) {
		t.Errorf("seq bytes = %x", pre[102:110])
	}
}

func TestDigestStable(t *testing.T) {
	d1, err := Digest(katParams())
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	d2, _ := Digest(katParams())
	if d1 != d2 {
		t.Error("digest unstable for identical inputs")
	}
}

func TestDigestSensitivity(t *testing.T) {
	base, err := Digest(katParams())
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}

	mutate := []struct {
		name string
		fn   func(*Params)
	}{
		{"chain id", func(p *Params) { p.ChainID = 2 }},
		{"program id", func(p *Params) { p.ProgramID[0] = 1 }},
		{"proof hash", func(p *Params) { p.ProofHash[31] = 1 }},
		{"start slot", func(p *Params) { p.StartSlot = 2 }},
		{"end slot", func(p *Params) { p.EndSlot = 2 }},
		{"seq", func(p *Params) { p.Seq = 2 }},
	}

	for _, m := range mutate {
		t.Run(m.name, func(t *testing.T) {
			p := katParams()
			m.fn(&p)
			d, err := Digest(p)
			if err != nil {
				t.Fatalf("Digest: %v", err)
			}
			if d == base {
				t.Errorf("changing %s did not change the digest", m.name)
			}
		})
	}
}
