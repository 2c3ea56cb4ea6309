package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileBackend keeps the snapshot in a single file, mapping.json by default.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend storing the snapshot at path.
// Parent directories are created on the first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Location() string { return b.path }

// Put writes the blob using an atomic write (temp file + rename), so a reader
// sees either the whole old record or the whole new one.
func (b *FileBackend) Put(r io.Reader, size int64) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// The temp file lives next to the target so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Get copies the snapshot file to w. A missing file means nothing was saved.
func (b *FileBackend) Get(w io.Writer) (bool, error) {
	f, err := os.Open(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return false, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return true, nil
}

// ValidateSetup checks that the snapshot directory exists (creating it if
// needed) and that a file can be written there.
func (b *FileBackend) ValidateSetup() error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("snapshot directory not accessible: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("snapshot directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot path parent is not a directory: %s", dir)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("snapshot directory not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// Compile-time check that FileBackend implements Backend.
var _ Backend = (*FileBackend)(nil)
