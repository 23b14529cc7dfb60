// Copyright 2025 zkSL Labs
//
// Canonical Codec - deterministic JSON canonicalization and fixed-width
// integer encodings shared by the commitment builder, the anchor payload
// encoder, and the indexer decoders. Two independent implementations of
// this package must produce bit-identical output or the on-chain verifier
// rejects the submission.

package canonical

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Keys dropped from every object during canonicalization. Inputs arrive
// from JSON bodies produced by arbitrary clients; these keys are the
// classic prototype-pollution vectors and are never legitimate fields.
var forbiddenKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

var hex32Pattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Marshal returns the canonical JSON encoding of v: object keys in
// byte-wise ascending UTF-8 order, no whitespace, no trailing newline,
// absent values omitted. Number policy: integral float64 values within
// the exact-integer range of the type are emitted as decimal integer
// literals; everything else goes through strconv 'g' shortest form.
func Marshal(v interface{}) ([]byte, error) {
	var buf []byte
	buf, err := appendValue(buf, v)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// MarshalRaw canonicalizes arbitrary JSON bytes.
func MarshalRaw(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return Marshal(v)
}

func appendValue(buf []byte, v interface{}) ([]byte, error) {
	switch vv := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if vv {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case string:
		return appendString(buf, vv)
	case json.Number:
		return append(buf, vv.String()...), nil
	case float64:
		return appendFloat(buf, vv)
	case int:
		return strconv.AppendInt(buf, int64(vv), 10), nil
	case int64:
		return strconv.AppendInt(buf, vv, 10), nil
	case uint64:
		return strconv.AppendUint(buf, vv, 10), nil
	case uint32:
		return strconv.AppendUint(buf, uint64(vv), 10), nil
	case []interface{}:
		buf = append(buf, '[')
		for i, e := range vv {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendValue(buf, e)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case map[string]interface{}:
		return appendObject(buf, vv)
	default:
		return nil, fmt.Errorf("canonical: unsupported type %T", v)
	}
}

func appendObject(buf []byte, m map[string]interface{}) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		if _, bad := forbiddenKeys[k]; bad {
			continue
		}
		if m[k] == nil {
			// Absent values are omitted, not rendered as null.
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		var err error
		buf, err = appendString(buf, k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, ':')
		buf, err = appendValue(buf, m[k])
		if err != nil {
			return nil, err
		}
	}
	return append(buf, '}'), nil
}

func appendString(buf []byte, s string) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return append(buf, b...), nil
}

func appendFloat(buf []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("canonical: non-finite number")
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.AppendInt(buf, int64(f), 10), nil
	}
	return strconv.AppendFloat(buf, f, 'g', -1, 64), nil
}

// U32LE encodes v as 4 little-endian bytes.
func U32LE(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// U64LE encodes v as 8 little-endian bytes.
func U64LE(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// I64LE encodes v as 8 little-endian two's-complement bytes.
func I64LE(v int64) []byte {
	return U64LE(uint64(v))
}

// NormalizeHex32 validates a 64-character hex string and returns it
// lowercased. Normalization happens before any hashing step so that
// mixed-case inputs hash identically.
func NormalizeHex32(s string) (string, error) {
	if !hex32Pattern.MatchString(s) {
		return "", fmt.Errorf("expected 64 hex characters, got %q", truncateForError(s))
	}
	return strings.ToLower(s), nil
}

func truncateForError(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
