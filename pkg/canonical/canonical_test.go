// Copyright 2025 zkSL Labs
//
// Unit tests for the canonical codec

package canonical

import (
	"bytes"
	"testing"
)

func TestMarshalSortsKeys(t *testing.T) {
	a := map[string]interface{}{
		"zeta":  uint64(1),
		"alpha": "x",
		"mid":   []interface{}{true, nil, "y"},
	}
	b := map[string]interface{}{
		"mid":   []interface{}{true, nil, "y"},
		"alpha": "x",
		"zeta":  uint64(1),
	}

	ca, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal(a): %v", err)
	}
	cb, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal(b): %v", err)
	}
	if !bytes.Equal(ca, cb) {
		t.Errorf("key order changed output: %s vs %s", ca, cb)
	}

	want := `{"alpha":"x","mid":[true,null,"y"],"zeta":1}`
	if string(ca) != want {
		t.Errorf("canonical form mismatch:\n got %s\nwant %s", ca, want)
	}
}

func TestMarshalNoWhitespaceNoNewline(t *testing.T) {
	out, err := Marshal(map[string]interface{}{"a": uint64(1), "b": "c d"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if bytes.ContainsAny(out[:len(out)-1], "\n") || out[len(out)-1] == '\n' {
		t.Error("output contains newline")
	}
	if string(out) != `{"a":1,"b":"c d"}` {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestMarshalDropsForbiddenKeys(t *testing.T) {
	out, err := Marshal(map[string]interface{}{
		"__proto__":   "evil",
		"constructor": "evil",
		"prototype":   "evil",
		"ok":          uint64(7),
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"ok":7}` {
		t.Errorf("forbidden keys not dropped: %s", out)
	}
}

func TestMarshalOmitsNilValues(t *testing.T) {
	out, err := Marshal(map[string]interface{}{"a": nil, "b": uint64(1)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"b":1}` {
		t.Errorf("nil value not omitted: %s", out)
	}
}

func TestMarshalRawStableAcrossReorder(t *testing.T) {
	c1, err := MarshalRaw([]byte(`{"b":2,"a":{"y":[1,2],"x":"s"}}`))
	if err != nil {
		t.Fatalf("MarshalRaw: %v", err)
	}
	c2, err := MarshalRaw([]byte(`{"a":{"x":"s","y":[1,2]},"b":2}`))
	if err != nil {
		t.Fatalf("MarshalRaw: %v", err)
	}
	if !bytes.Equal(c1, c2) {
		t.Errorf("reordered input changed output: %s vs %s", c1, c2)
	}
}

func TestMarshalRawPreservesNumberLiterals(t *testing.T) {
	out, err := MarshalRaw([]byte(`{"n":18446744073709551615,"f":1.5}`))
	if err != nil {
		t.Fatalf("MarshalRaw: %v", err)
	}
	if string(out) != `{"f":1.5,"n":18446744073709551615}` {
		t.Errorf("number literal changed: %s", out)
	}
}

func TestIntegerEncodings(t *testing.T) {
	if got := U32LE(0x01020304); !bytes.Equal(got, []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Errorf("U32LE: %x", got)
	}
	if got := U64LE(0x0102030405060708); !bytes.Equal(got, []byte{8, 7, 6, 5, 4, 3, 2, 1}) {
		t.Errorf("U64LE: %x", got)
	}
	if got := I64LE(-1); !bytes.Equal(got, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("I64LE(-1): %x", got)
	}
}

func TestNormalizeHex32(t *testing.T) {
	upper := "ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789"
	lower, err := NormalizeHex32(upper)
	if err != nil {
		t.Fatalf("NormalizeHex32: %v", err)
	}
	if lower != "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789" {
		t.Errorf("not lowercased: %s", lower)
	}

	// Idempotent on already-normal input.
	again, err := NormalizeHex32(lower)
	if err != nil {
		t.Fatalf("NormalizeHex32 second pass: %v", err)
	}
	if again != lower {
		t.Errorf("normalization not idempotent")
	}

	bad := []string{
		"",
		"abc",
		"G" + lower[1:],
		lower + "00",
	}
	for _, s := range bad {
		if _, err := NormalizeHex32(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}
