// Package registrydb is a persistent database of participant registries.
// The database keeps small reference records with the ordered member list;
// the merkle trees themselves live in memory as working copies, rebuilt
// from their reference on first load. Member order is preserved so a
// rebuilt tree reproduces the original root bit for bit.
package registrydb

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/giftring/giftring-core/crypto/hash/hashers"
	"github.com/giftring/giftring-core/events"
	"github.com/giftring/giftring-core/registry"
	"github.com/giftring/giftring-core/types"
)

const referencePrefix = "gr_"

var (
	// ErrRegistryNotFound is returned when a registry is not in the database.
	ErrRegistryNotFound = fmt.Errorf("registry not found in the local database")
	// ErrRegistryAlreadyExists is returned by Create if the id is taken.
	ErrRegistryAlreadyExists = fmt.Errorf("registry already exists in the local database")
)

// Ref is the persisted description of a registry.
type Ref struct {
	ID        uuid.UUID
	Admin     common.Address
	HashType  string
	Levels    int
	Frozen    bool
	Members   []common.Address
	CreatedAt time.Time
	LastUsed  time.Time
}

// DB is a persistent database of participant registries with in-memory
// working copies. Safe for concurrent use; the working copies themselves
// are not, their callers serialize access.
type DB struct {
	mu     sync.RWMutex
	db     db.Database
	loaded map[uuid.UUID]*registry.Registry
	sink   events.Sink
}

// New creates a registry database. Every registry handed out by Create and
// Load emits its events to sink, tagged with the registry id.
func New(database db.Database, sink events.Sink) *DB {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &DB{
		db:     database,
		loaded: make(map[uuid.UUID]*registry.Registry),
		sink:   sink,
	}
}

func refKey(id uuid.UUID) []byte {
	return append([]byte(referencePrefix), id[:]...)
}

func (d *DB) registrySink(id uuid.UUID) events.Sink {
	return events.Tagged(d.sink, map[string]string{"registryId": id.String()})
}

// Create creates and persists a new empty registry owned by admin, using
// the named hash function for its tree.
func (d *DB) Create(id uuid.UUID, admin common.Address, hashType string) (*registry.Registry, error) {
	hasher, err := hashers.New(hashType)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.loaded[id]; exists {
		return nil, ErrRegistryAlreadyExists
	}
	if _, err := d.db.Get(refKey(id)); err == nil {
		return nil, ErrRegistryAlreadyExists
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return nil, err
	}

	reg, err := registry.New(admin, hasher, types.RegistryTreeMaxLevels, d.registrySink(id))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := d.writeReference(&Ref{
		ID:        id,
		Admin:     admin,
		HashType:  hashType,
		Levels:    types.RegistryTreeMaxLevels,
		CreatedAt: now,
		LastUsed:  now,
	}); err != nil {
		return nil, err
	}
	d.loaded[id] = reg
	return reg, nil
}

// Load returns the working copy for id, rebuilding it from the persisted
// reference when it is not already in memory.
func (d *DB) Load(id uuid.UUID) (*registry.Registry, error) {
	d.mu.RLock()
	if reg, exists := d.loaded[id]; exists {
		d.mu.RUnlock()
		return reg, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if reg, exists := d.loaded[id]; exists {
		return reg, nil
	}

	ref, err := d.readReference(id)
	if err != nil {
		return nil, err
	}
	hasher, err := hashers.New(ref.HashType)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Restore(ref.Admin, ref.Members, ref.Frozen,
		hasher, ref.Levels, d.registrySink(id))
	if err != nil {
		return nil, err
	}
	ref.LastUsed = time.Now()
	if err := d.writeReference(ref); err != nil {
		return nil, err
	}
	d.loaded[id] = reg
	return reg, nil
}

// Persist writes the working copy's member list and freeze state back to
// the database. Callers invoke it after every successful mutation.
func (d *DB) Persist(id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	reg, exists := d.loaded[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrRegistryNotFound, id)
	}
	ref, err := d.readReference(id)
	if err != nil {
		return err
	}
	ref.Members = reg.Members()
	ref.Frozen = reg.Frozen()
	ref.LastUsed = time.Now()
	return d.writeReference(ref)
}

// Exists reports whether the registry id is known, in memory or on disk.
func (d *DB) Exists(id uuid.UUID) bool {
	d.mu.RLock()
	_, exists := d.loaded[id]
	d.mu.RUnlock()
	if exists {
		return true
	}
	_, err := d.db.Get(refKey(id))
	return err == nil
}

// List returns the ids of every persisted registry, in byte order.
func (d *DB) List() ([]uuid.UUID, error) {
	rd := prefixeddb.NewPrefixedReader(d.db, []byte(referencePrefix))
	var ids []uuid.UUID
	var iterErr error
	if err := rd.Iterate(nil, func(k, _ []byte) bool {
		id, err := uuid.FromBytes(k)
		if err != nil {
			iterErr = fmt.Errorf("malformed registry key %x: %w", k, err)
			return false
		}
		ids = append(ids, id)
		return true
	}); err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return ids, nil
}

// Del removes a registry's reference and drops its working copy. Rounds
// already bound to the registry keep their snapshot roots; they only lose
// the ability to restore.
func (d *DB) Del(id uuid.UUID) error {
	wtx := d.db.WriteTx()
	if err := wtx.Delete(refKey(id)); err != nil {
		wtx.Discard()
		return err
	}
	if err := wtx.Commit(); err != nil {
		return err
	}
	d.mu.Lock()
	delete(d.loaded, id)
	d.mu.Unlock()
	return nil
}

// writeReference writes a registry reference to the database.
func (d *DB) writeReference(ref *Ref) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ref); err != nil {
		return err
	}
	wtx := d.db.WriteTx()
	defer wtx.Discard()
	if err := wtx.Set(refKey(ref.ID), buf.Bytes()); err != nil {
		return err
	}
	return wtx.Commit()
}

// readReference reads a registry reference from the database.
func (d *DB) readReference(id uuid.UUID) (*Ref, error) {
	b, err := d.db.Get(refKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, id)
		}
		return nil, err
	}
	var ref Ref
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&ref); err != nil {
		return nil, err
	}
	return &ref, nil
}
