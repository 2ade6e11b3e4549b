// Package persist saves and restores the whole session collection under one
// fixed key. Loading never fails: missing or damaged data reads as an empty
// collection. Saving never fails either: errors are logged and dropped.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/session"
)

// Key is the storage key of the session collection.
const Key = "ds_siaka_sessions"

// ErrCorrupt marks stored data that cannot be read back.
var ErrCorrupt = errors.New("stored sessions are corrupt")

// Store reads and writes the session collection.
type Store interface {
	Load(ctx context.Context) []session.Session
	Save(ctx context.Context, sessions []session.Session)
}

// Backend is a Store holding an open resource.
type Backend interface {
	Store
	io.Closer
}

// Kind names a storage backend.
type Kind string

// Storage backends.
const (
	KindSQLite Kind = "sqlite"
	KindFile   Kind = "file"
)

// Open opens the backend of the given kind inside dir.
func Open(ctx context.Context, kind Kind, dir string) (Backend, error) {
	switch kind {
	case KindSQLite, "":
		return OpenSQLite(ctx, filepath.Join(dir, "siaka.db"))
	case KindFile:
		return NewFileStore(filepath.Join(dir, Key+".json")), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// Encode serializes sessions to the stored JSON form.
func Encode(sessions []session.Session) ([]byte, error) {
	if sessions == nil {
		sessions = []session.Session{}
	}
	b, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("encoding sessions: %w", err)
	}
	return b, nil
}

// Decode parses stored JSON. Empty input is an empty collection; anything
// that is not a well-formed array of valid sessions is ErrCorrupt.
func Decode(data []byte) ([]session.Session, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrCorrupt)
	}
	if !gjson.ParseBytes(data).IsArray() {
		return nil, fmt.Errorf("%w: not an array", ErrCorrupt)
	}

	var sessions []session.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	seen := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("%w: duplicate session %s", ErrCorrupt, s.ID)
		}
		seen[s.ID] = true
	}
	return sessions, nil
}

// decodeOrEmpty is the lenient loader shared by the backends.
func decodeOrEmpty(component string, data []byte) []session.Session {
	sessions, err := Decode(data)
	if err != nil {
		debug.Error(component, err, "loading sessions")
		return []session.Session{}
	}
	if sessions == nil {
		return []session.Session{}
	}
	return sessions
}
