package persist

import (
	"context"
	"fmt"

	"github.com/guilhermegouw/siaka/internal/db"
	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/session"
)

// SQLiteStore keeps the collection as one row of the kv table.
type SQLiteStore struct {
	db *db.DB
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	database, err := db.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	return NewSQLiteStore(database), nil
}

// NewSQLiteStore wraps an open database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

// Load reads the collection.
func (s *SQLiteStore) Load(ctx context.Context) []session.Session {
	value, ok, err := s.db.Get(ctx, Key)
	if err != nil {
		debug.Error("persist.sqlite", err, "reading sessions")
		return []session.Session{}
	}
	if !ok {
		return []session.Session{}
	}
	return decodeOrEmpty("persist.sqlite", []byte(value))
}

// Save writes the collection.
func (s *SQLiteStore) Save(ctx context.Context, sessions []session.Session) {
	data, err := Encode(sessions)
	if err != nil {
		debug.Error("persist.sqlite", err, "saving sessions")
		return
	}
	if err := s.db.Put(ctx, Key, string(data)); err != nil {
		debug.Error("persist.sqlite", err, "saving sessions")
		return
	}
	debug.Event("persist.sqlite", "saved", fmt.Sprintf("%d sessions", len(sessions)))
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.db.Path()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
