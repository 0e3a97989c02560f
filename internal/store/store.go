// Package store implements Supertag's single-file embedded relational
// store: one SQLite file per workspace holding nodes, references, tag
// applications, field values, and the derived supertag catalog tables,
// plus an FTS5 index on node names and a sibling sqlite-vec database for
// embeddings. Modeled on codenerd's internal/store.LocalStore.
package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/logging"
)

// Store is the relational+FTS store for a single workspace. Multiple
// readers may be in flight; writes are serialized by mu, matching the
// one write lock per workspace.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	path      string
	vectorDir string
	vec       *VectorStore
}

// Open opens (creating if necessary) the store at path and applies
// migrations. vectorDir is the sibling directory for the vector store;
// it is created when the store opens.
func Open(path, vectorDir string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, superr.Wrap(superr.InternalError, err, "creating store directory "+dir)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "opening store "+path)
	}
	// A single connection: SQLite's file-level locking plus our own
	// mutex gives us multiple-reader/single-writer semantics without
	// fighting sql.DB's pool over one file.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			logging.Get(logging.CategoryStore).Warn("pragma failed %q: %v", p, err)
		}
	}

	s := &Store{db: db, path: path, vectorDir: vectorDir}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, err
	}

	vec, err := openVectorStore(vectorDir)
	if err != nil {
		// Semantic search degrades gracefully without the vector store;
		// the rest of the relational store still works.
		logging.Get(logging.CategoryStore).Warn("vector store unavailable: %v", err)
	}
	s.vec = vec

	return s, nil
}

// DB returns the underlying *sql.DB for packages (indexer, query) that
// need to build their own statements against the shared schema.
func (s *Store) DB() *sql.DB { return s.db }

// Vector returns the sibling vector store, or nil if it failed to open.
func (s *Store) Vector() *VectorStore { return s.vec }

// Lock acquires the single write lock for the duration of an indexing
// transaction.
func (s *Store) Lock() { s.mu.Lock() }

// Unlock releases the write lock acquired by Lock.
func (s *Store) Unlock() { s.mu.Unlock() }

// RLock acquires a reader lock; any number of readers may hold it
// concurrently with no active writer.
func (s *Store) RLock() { s.mu.RLock() }

// RUnlock releases a reader lock acquired by RLock.
func (s *Store) RUnlock() { s.mu.RUnlock() }

// Close closes the relational database and the vector store.
func (s *Store) Close() error {
	var err error
	if s.vec != nil {
		if e := s.vec.Close(); e != nil {
			err = e
		}
	}
	if e := s.db.Close(); e != nil {
		err = e
	}
	return err
}

// Stats returns row counts for the core tables, used by `stats`.
func (s *Store) Stats() (map[string]int64, error) {
	s.RLock()
	defer s.RUnlock()

	tables := []string{
		"nodes", "node_refs", "tag_applications", "field_values",
		"supertag_metadata", "supertag_fields", "supertag_parents",
	}
	out := make(map[string]int64, len(tables))
	for _, t := range tables {
		var n int64
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + t).Scan(&n); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "counting "+t)
		}
		out[t] = n
	}
	return out, nil
}
