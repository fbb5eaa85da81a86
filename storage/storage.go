// Package storage persists the protocol's durable artifacts in a prefixed
// key-value database. The following prefixes are used:
//   - 'rs/' for round state snapshots, keyed by event id
//   - 'ev/' for the audit event log, keyed by big endian sequence number
//   - 'm/' for engine metadata such as the round factory nonce
//
// Registry references live in their own sub-package, registrydb, over the
// same database handle.
package storage

import (
	"fmt"
	"sync"

	"go.vocdoni.io/dvote/db"
)

var (
	// Prefixes for the keys in the database.
	roundPrefix = []byte("rs/")
	eventPrefix = []byte("ev/")
	metaPrefix  = []byte("m/")
)

// ErrNotFound is returned when the requested artifact is not in the
// database.
var ErrNotFound = fmt.Errorf("artifact not found")

// Storage reads and writes protocol artifacts. Safe for concurrent use.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
	eventSeq   uint64
}

// New creates a Storage over the given database and recovers the audit log
// sequence counter from it.
func New(database db.Database) (*Storage, error) {
	s := &Storage{db: database}
	seq, err := s.lastEventSeq()
	if err != nil {
		return nil, fmt.Errorf("recover event sequence: %w", err)
	}
	s.eventSeq = seq
	return s, nil
}

// Database exposes the underlying handle so sibling stores, such as
// registrydb, can share it.
func (s *Storage) Database() db.Database {
	return s.db
}

// Close closes the underlying database.
func (s *Storage) Close() {
	s.db.Close()
}
