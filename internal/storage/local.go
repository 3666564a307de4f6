package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores blobs on the filesystem under Dir and serves them below
// BaseURL (the router mounts a file server there).
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates the storage directory if needed.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory of stored files.
func (l *Local) Dir() string { return l.dir }

// Store writes data to a new file and returns its relative path as handle.
func (l *Local) Store(_ context.Context, prefix string, data []byte, contentType string) (string, error) {
	handle, err := NewHandle(prefix, contentType)
	if err != nil {
		return "", err
	}
	path := filepath.Join(l.dir, filepath.FromSlash(handle))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", handle, err)
	}
	return handle, nil
}

// URL returns BaseURL joined with the handle.
func (l *Local) URL(handle string) string {
	return l.baseURL + "/" + handle
}

// Delete removes a stored file. Missing files are ignored.
func (l *Local) Delete(_ context.Context, handle string) error {
	if !validHandle(handle) {
		return fmt.Errorf("delete blob: invalid handle %q", handle)
	}
	err := os.Remove(filepath.Join(l.dir, filepath.FromSlash(handle)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", handle, err)
	}
	return nil
}
