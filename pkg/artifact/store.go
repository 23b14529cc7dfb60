// Copyright 2025 zkSL Labs
//
// Artifact Store - canonical artifact JSON on disk, one file per
// identifier, all writes constrained under a single allow-listed root.

package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrPathNotAllowed is returned when a resolved path escapes the store root.
var ErrPathNotAllowed = fmt.Errorf("path outside allow-listed artifact directory")

// Store persists canonical artifact JSON under a single root directory.
// A given identifier's file is written once and read-only thereafter;
// distinct identifiers never share a path.
type Store struct {
	root string
}

// NewStore creates the root directory if needed and returns the store.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{root: abs}, nil
}

// pathFor resolves the on-disk path for an identifier and rejects any
// result outside the store root.
func (s *Store) pathFor(id uuid.UUID) (string, error) {
	p := filepath.Join(s.root, id.String()+".json")
	clean := filepath.Clean(p)
	if !strings.HasPrefix(clean, s.root+string(filepath.Separator)) {
		return "", ErrPathNotAllowed
	}
	return clean, nil
}

// Write persists the canonical bytes for id. Writing the same id again
// with identical content is a no-op; the directory is append-only per
// identifier.
func (s *Store) Write(id uuid.UUID, canonicalJSON []byte) error {
	p, err := s.pathFor(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil {
		return nil
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, canonicalJSON, 0o640); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("finalize artifact: %w", err)
	}
	return nil
}

// Read returns the canonical bytes for id, or os.ErrNotExist.
func (s *Store) Read(id uuid.UUID) ([]byte, error) {
	p, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Exists reports whether an artifact file is present for id.
func (s *Store) Exists(id uuid.UUID) bool {
	p, err := s.pathFor(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}
