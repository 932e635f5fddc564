// Package storage provides a filesystem blob store for uploaded documents.
// Any path-addressable store satisfies the same contract.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Put writes content under a uuid-prefixed name derived from the original
// filename and returns the blob path.
func (s *FileStore) Put(content []byte, name string) (string, error) {
	safe := filepath.Base(strings.TrimSpace(name))
	if safe == "" || safe == "." || safe == string(filepath.Separator) {
		safe = "upload"
	}
	path := filepath.Join(s.baseDir, uuid.NewString()+"_"+safe)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write blob failed: %w", err)
	}
	return path, nil
}

func (s *FileStore) Get(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blob failed: %w", err)
	}
	return b, nil
}

// Delete removes the blob; a missing file is not an error.
func (s *FileStore) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob failed: %w", err)
	}
	return nil
}
