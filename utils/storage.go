package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore abstracts where uploaded documents and generated document
// logs live. Paths returned by Save are store-relative and are what the
// models persist.
type BlobStore interface {
	// Save writes the reader's content under dir/name and returns the
	// stored path. The write is all-or-nothing: a partially written
	// blob is never visible under the final path.
	Save(dir, name string, r io.Reader) (string, error)
	Read(path string) ([]byte, error)
	URLFor(path string) string
	Remove(path string) error
}

// LocalStore is a BlobStore backed by a directory on disk, served to
// clients under BaseURL.
type LocalStore struct {
	Root    string
	BaseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{
		Root:    root,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *LocalStore) Save(dir, name string, r io.Reader) (string, error) {
	targetDir := filepath.Join(s.Root, dir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage dir: %w", err)
	}

	// Write to a temp file in the target dir first, then rename into
	// place. Rename within one directory is atomic, so readers never
	// observe a half-written blob.
	tmp, err := os.CreateTemp(targetDir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	finalPath := filepath.Join(targetDir, name)
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to publish blob: %w", err)
	}

	return filepath.ToSlash(filepath.Join(dir, name)), nil
}

func (s *LocalStore) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}

func (s *LocalStore) URLFor(path string) string {
	return s.BaseURL + "/" + strings.TrimLeft(filepath.ToSlash(path), "/")
}

func (s *LocalStore) Remove(path string) error {
	return os.Remove(filepath.Join(s.Root, filepath.FromSlash(path)))
}
