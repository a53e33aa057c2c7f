package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDisabled is returned by [NullBackend] reads.
var ErrDisabled = errors.New("persistence disabled")

// Backend reads and writes documents by slash-separated name relative to
// the storage root.
type Backend interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	// Root returns the storage root, or "" when nothing is stored.
	Root() string
}

// FileBackend stores documents as files under a root directory.
type FileBackend struct {
	root string
}

// NewFileBackend returns a backend rooted at dir. The directory is expected
// to have been prepared by [Resolve].
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{root: dir}
}

// Read returns the contents of the named document.
func (b *FileBackend) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(b.path(name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the named document. The data is written to a temporary
// file in the same directory and renamed into place.
func (b *FileBackend) Write(name string, data []byte) error {
	path := b.path(name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Root returns the storage root.
func (b *FileBackend) Root() string { return b.root }

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.root, filepath.FromSlash(name))
}

// NullBackend stores nothing. Reads fail with [ErrDisabled] and writes
// succeed without effect.
type NullBackend struct{}

// Read always returns ErrDisabled.
func (NullBackend) Read(string) ([]byte, error) { return nil, ErrDisabled }

// Write does nothing.
func (NullBackend) Write(string, []byte) error { return nil }

// Root returns "".
func (NullBackend) Root() string { return "" }

var (
	_ Backend = (*FileBackend)(nil)
	_ Backend = NullBackend{}
)
