// Copyright 2025 zkSL Labs
//
// Unit tests for artifact identity and the on-disk store

package artifact

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
)

const (
	rootA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	rootB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		start   uint64
		end     uint64
		before  string
		after   string
		wantErr bool
	}{
		{"valid single slot", 1, 1, rootA, rootB, false},
		{"valid max span", 0, 2047, rootA, rootB, false},
		{"end before start", 5, 4, rootA, rootB, true},
		{"span too large", 0, 2999, rootA, rootB, true},
		{"bad hex before", 1, 1, strings.Repeat("G", 64), rootB, true},
		{"short hex after", 1, 1, rootA, "abcd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.end, tt.before, tt.after)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewNormalizesRoots(t *testing.T) {
	a, err := New(1, 2, strings.ToUpper(rootA), rootB)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.StateRootBefore != rootA {
		t.Errorf("root not lowercased: %s", a.StateRootBefore)
	}
}

func TestCanonicalStable(t *testing.T) {
	a, err := New(10, 20, rootA, rootB)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c1, err := a.Canonical()
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	c2, _ := a.Canonical()
	if !bytes.Equal(c1, c2) {
		t.Error("canonical encoding unstable across calls")
	}
	want := `{"end_slot":20,"start_slot":10,"state_root_after":"` + rootB +
		`","state_root_before":"` + rootA + `"}`
	if string(c1) != want {
		t.Errorf("canonical form:\n got %s\nwant %s", c1, want)
	}
}

func TestProofHashDistinguishesFields(t *testing.T) {
	base, _ := New(1, 2, rootA, rootB)
	h0, err := base.ProofHash()
	if err != nil {
		t.Fatalf("ProofHash: %v", err)
	}

	variants := []*Artifact{}
	if a, err := New(2, 2, rootA, rootB); err == nil {
		variants = append(variants, a)
	}
	if a, err := New(1, 3, rootA, rootB); err == nil {
		variants = append(variants, a)
	}
	if a, err := New(1, 2, rootB, rootA); err == nil {
		variants = append(variants, a)
	}
	for i, v := range variants {
		h, err := v.ProofHash()
		if err != nil {
			t.Fatalf("variant %d: %v", i, err)
		}
		if h == h0 {
			t.Errorf("variant %d produced identical proof hash", i)
		}
	}
}

func TestIDIsValidV4UUID(t *testing.T) {
	a, _ := New(1, 2, rootA, rootB)
	id, err := a.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id.Version() != 4 {
		t.Errorf("version = %d, want 4", id.Version())
	}
	if id.Variant() != uuid.RFC4122 {
		t.Errorf("variant = %v, want RFC4122", id.Variant())
	}

	// Deterministic from content.
	b, _ := New(1, 2, rootA, rootB)
	id2, _ := b.ID()
	if id != id2 {
		t.Error("identifier not deterministic")
	}

	// Prefix comes from the proof hash.
	ph, _ := a.ProofHash()
	derived := IDFromProofHash(ph)
	if id != derived {
		t.Error("ID disagrees with IDFromProofHash")
	}
}

func TestStoreWriteOncePerID(t *testing.T) {
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	a, _ := New(1, 2, rootA, rootB)
	id, _ := a.ID()
	canon, _ := a.Canonical()

	if err := st.Write(id, canon); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Second write is a no-op.
	if err := st.Write(id, canon); err != nil {
		t.Fatalf("re-Write: %v", err)
	}

	got, err := st.Read(id)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, canon) {
		t.Error("round-trip mismatch")
	}
	if !st.Exists(id) {
		t.Error("Exists = false after write")
	}
	if st.Exists(uuid.New()) {
		t.Error("Exists = true for unknown id")
	}
}
