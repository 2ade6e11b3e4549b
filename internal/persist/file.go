package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/session"
)

// FileStore keeps the collection in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the collection.
func (s *FileStore) Load(_ context.Context) []session.Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			debug.Error("persist.file", err, "reading sessions")
		}
		return []session.Session{}
	}
	return decodeOrEmpty("persist.file", data)
}

// Save writes the collection, replacing the file in one step.
func (s *FileStore) Save(_ context.Context, sessions []session.Session) {
	data, err := Encode(sessions)
	if err == nil {
		err = writeFileAtomic(s.path, data)
	}
	if err != nil {
		debug.Error("persist.file", err, "saving sessions")
		return
	}
	debug.Event("persist.file", "saved", fmt.Sprintf("%d sessions", len(sessions)))
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
