// Package engine coordinates the protocol core over persistent storage. It
// owns the working copies of registries and rounds, serializes mutations,
// persists a snapshot after every accepted state change and rebuilds
// everything from storage at startup.
package engine

import (
	"bytes"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/giftring/giftring-core/crypto/hash"
	"github.com/giftring/giftring-core/crypto/hash/hashers"
	"github.com/giftring/giftring-core/events"
	"github.com/giftring/giftring-core/log"
	"github.com/giftring/giftring-core/round"
	"github.com/giftring/giftring-core/smt"
	"github.com/giftring/giftring-core/storage"
	"github.com/giftring/giftring-core/storage/registrydb"
	"github.com/giftring/giftring-core/types"
	"github.com/giftring/giftring-core/verifier"
)

// ErrRoundNotFound is returned when an event id does not match any round.
var ErrRoundNotFound = fmt.Errorf("round not found")

// Config carries the engine's collaborators. FactoryAddress identifies this
// deployment in derived event ids; the verifiers check sender and receiver
// proofs.
type Config struct {
	FactoryAddress   common.Address
	VerifierSender   verifier.Verifier
	VerifierReceiver verifier.Verifier
	// ExtraSink, when set, receives every audit event in addition to the
	// persistent log.
	ExtraSink events.Sink
}

// Engine is the protocol coordinator. Safe for concurrent use.
type Engine struct {
	mu         sync.RWMutex
	stg        *storage.Storage
	registries *registrydb.DB
	factory    *round.Factory
	rounds     map[types.EventID]*round.Round
	roundReg   map[types.EventID]uuid.UUID

	verifierSender   verifier.Verifier
	verifierReceiver verifier.Verifier
	sink             events.Sink
}

// New builds an engine over stg and restores every persisted registry and
// round. Rounds whose registry or snapshot cannot be restored are skipped
// with a warning rather than failing startup.
func New(stg *storage.Storage, cfg Config) (*Engine, error) {
	if cfg.VerifierSender == nil || cfg.VerifierReceiver == nil {
		return nil, round.ErrNilVerifier
	}
	sink := events.Multi{stg.EventSink()}
	if cfg.ExtraSink != nil {
		sink = append(sink, cfg.ExtraSink)
	}
	e := &Engine{
		stg:              stg,
		registries:       registrydb.New(stg.Database(), sink),
		factory:          round.NewFactory(cfg.FactoryAddress, sink),
		rounds:           make(map[types.EventID]*round.Round),
		roundReg:         make(map[types.EventID]uuid.UUID),
		verifierSender:   cfg.VerifierSender,
		verifierReceiver: cfg.VerifierReceiver,
		sink:             sink,
	}
	nonce, err := stg.FactoryNonce()
	if err != nil {
		return nil, fmt.Errorf("load factory nonce: %w", err)
	}
	e.factory.SetNonce(nonce)
	if err := e.restoreRounds(); err != nil {
		return nil, err
	}
	return e, nil
}

// restoreRounds replays every persisted round snapshot into a working copy.
func (e *Engine) restoreRounds() error {
	ids, err := e.stg.ListRounds()
	if err != nil {
		return fmt.Errorf("list rounds: %w", err)
	}
	for _, id := range ids {
		st, err := e.stg.Round(id)
		if err != nil {
			return fmt.Errorf("load round %s: %w", id, err)
		}
		reg, err := e.registries.Load(st.RegistryID)
		if err != nil {
			log.Warnw("skipping round with unrecoverable registry",
				"eventId", id.String(), "registryId", st.RegistryID.String(), "error", err.Error())
			continue
		}
		hasher, err := hashers.New(st.HashType)
		if err != nil {
			log.Warnw("skipping round with unknown hash type",
				"eventId", id.String(), "hashType", st.HashType)
			continue
		}
		r, err := round.Restore(st, reg, e.verifierSender, e.verifierReceiver, hasher, e.sink)
		if err != nil {
			log.Warnw("skipping unrecoverable round",
				"eventId", id.String(), "error", err.Error())
			continue
		}
		e.rounds[id] = r
		e.roundReg[id] = st.RegistryID
	}
	return nil
}

// persistRound snapshots a round under its registry binding.
func (e *Engine) persistRound(r *round.Round, registryID uuid.UUID) error {
	st := r.State()
	st.RegistryID = registryID
	if err := e.stg.SetRound(st); err != nil {
		return fmt.Errorf("persist round: %w", err)
	}
	return nil
}

// CreateRegistry creates a new participant registry owned by admin. An
// empty hashType selects poseidon.
func (e *Engine) CreateRegistry(admin common.Address, hashType string) (uuid.UUID, error) {
	if hashType == "" {
		hashType = hash.TypePoseidon
	}
	id := uuid.New()
	if _, err := e.registries.Create(id, admin, hashType); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// RegistryInfo is a point-in-time view of a registry.
type RegistryInfo struct {
	ID       uuid.UUID        `json:"registryId"`
	Admin    common.Address   `json:"admin"`
	Root     *types.BigInt    `json:"root"`
	Size     int              `json:"size"`
	Frozen   bool             `json:"frozen"`
	HashType string           `json:"hashType"`
	Levels   int              `json:"levels"`
	Members  []common.Address `json:"members,omitempty"`
}

// Registry returns a view of the registry with the given id.
func (e *Engine) Registry(id uuid.UUID) (*RegistryInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	reg, err := e.registries.Load(id)
	if err != nil {
		return nil, err
	}
	return &RegistryInfo{
		ID:       id,
		Admin:    reg.Admin(),
		Root:     new(types.BigInt).SetBigInt(reg.Root()),
		Size:     reg.Size(),
		Frozen:   reg.Frozen(),
		HashType: reg.Hasher().Type(),
		Levels:   reg.Levels(),
		Members:  reg.Members(),
	}, nil
}

// ListRegistries returns the ids of every persisted registry.
func (e *Engine) ListRegistries() ([]uuid.UUID, error) {
	return e.registries.List()
}

// RegisterParticipants registers identities atomically on behalf of caller.
func (e *Engine) RegisterParticipants(id uuid.UUID, caller common.Address, identities []common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	reg, err := e.registries.Load(id)
	if err != nil {
		return err
	}
	if err := reg.RegisterBatch(caller, identities); err != nil {
		return err
	}
	return e.registries.Persist(id)
}

// FreezeRegistry makes the registry immutable on behalf of caller.
func (e *Engine) FreezeRegistry(id uuid.UUID, caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	reg, err := e.registries.Load(id)
	if err != nil {
		return err
	}
	if err := reg.Freeze(caller); err != nil {
		return err
	}
	return e.registries.Persist(id)
}

// UnfreezeRegistry reopens the registry on behalf of caller.
func (e *Engine) UnfreezeRegistry(id uuid.UUID, caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	reg, err := e.registries.Load(id)
	if err != nil {
		return err
	}
	if err := reg.Unfreeze(caller); err != nil {
		return err
	}
	return e.registries.Persist(id)
}

// MembershipProof generates a membership proof for identity against the
// registry's current root.
func (e *Engine) MembershipProof(id uuid.UUID, identity common.Address) (*smt.Proof, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	reg, err := e.registries.Load(id)
	if err != nil {
		return nil, err
	}
	return reg.ProofFor(identity)
}

// MembershipNode returns the field embedding stored for identity in the
// registry, or registry.ErrNotRegistered.
func (e *Engine) MembershipNode(id uuid.UUID, identity common.Address) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	reg, err := e.registries.Load(id)
	if err != nil {
		return nil, err
	}
	return reg.MembershipNode(identity)
}

// CreateRound binds a new round to the registry's frozen snapshot. A
// commitmentsDepth of zero selects the default depth; an empty hashType
// selects poseidon for the commitments tree.
func (e *Engine) CreateRound(registryID uuid.UUID, hashType string, commitmentsDepth int) (types.EventID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if hashType == "" {
		hashType = hash.TypePoseidon
	}
	if commitmentsDepth == 0 {
		commitmentsDepth = types.CommitmentsTreeDefaultLevels
	}
	reg, err := e.registries.Load(registryID)
	if err != nil {
		return types.EventID{}, err
	}
	hasher, err := hashers.New(hashType)
	if err != nil {
		return types.EventID{}, err
	}
	r, eventID, err := e.factory.CreateRound(reg, e.verifierSender, e.verifierReceiver, hasher, commitmentsDepth)
	if err != nil {
		return types.EventID{}, err
	}
	if err := e.stg.SetFactoryNonce(e.factory.Nonce()); err != nil {
		return types.EventID{}, fmt.Errorf("persist factory nonce: %w", err)
	}
	if err := e.persistRound(r, registryID); err != nil {
		return types.EventID{}, err
	}
	e.rounds[eventID] = r
	e.roundReg[eventID] = registryID
	return eventID, nil
}

// Round returns the full state snapshot of a round.
func (e *Engine) Round(eventID types.EventID) (*types.RoundState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rounds[eventID]
	if !ok {
		return nil, ErrRoundNotFound
	}
	st := r.State()
	st.RegistryID = e.roundReg[eventID]
	return st, nil
}

// ListRounds returns the event ids of every live round, in byte order.
func (e *Engine) ListRounds() []types.EventID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]types.EventID, 0, len(e.rounds))
	for id := range e.rounds {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b types.EventID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}

// Advance moves a round to its next phase on behalf of caller.
func (e *Engine) Advance(eventID types.EventID, caller common.Address) (types.Phase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rounds[eventID]
	if !ok {
		return 0, ErrRoundNotFound
	}
	phase, err := r.Advance(caller)
	if err != nil {
		return phase, err
	}
	return phase, e.persistRound(r, e.roundReg[eventID])
}

// Commit records identity's commitment in the round.
func (e *Engine) Commit(eventID types.EventID, identity common.Address, commitmentHash *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rounds[eventID]
	if !ok {
		return ErrRoundNotFound
	}
	if err := r.Commit(identity, commitmentHash); err != nil {
		return err
	}
	return e.persistRound(r, e.roundReg[eventID])
}

// DetermineSender submits a sender determination proof to the round and
// returns the accepted slot's 1-based index.
func (e *Engine) DetermineSender(eventID types.EventID, proof []byte, publicInputs []*big.Int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rounds[eventID]
	if !ok {
		return 0, ErrRoundNotFound
	}
	index, err := r.DetermineSender(proof, publicInputs)
	if err != nil {
		return 0, err
	}
	return index, e.persistRound(r, e.roundReg[eventID])
}

// DiscloseReceiver submits a receiver disclosure proof with its encrypted
// payload to the round.
func (e *Engine) DiscloseReceiver(eventID types.EventID, caller common.Address, proof []byte,
	publicInputs []*big.Int, encryptedPayload []byte,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rounds[eventID]
	if !ok {
		return ErrRoundNotFound
	}
	if err := r.DiscloseReceiver(caller, proof, publicInputs, encryptedPayload); err != nil {
		return err
	}
	return e.persistRound(r, e.roundReg[eventID])
}

// Senders returns the ordered sender slots of a round.
func (e *Engine) Senders(eventID types.EventID) ([]types.SenderSlot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rounds[eventID]
	if !ok {
		return nil, ErrRoundNotFound
	}
	return r.Senders(), nil
}

// Payload returns the encrypted payload stored under nullifier in a round,
// nil when absent.
func (e *Engine) Payload(eventID types.EventID, nullifier *big.Int) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rounds[eventID]
	if !ok {
		return nil, ErrRoundNotFound
	}
	return r.Payload(nullifier), nil
}

// Events returns up to max audit events with sequence numbers strictly
// greater than after.
func (e *Engine) Events(after uint64, max int) ([]storage.StoredEvent, error) {
	return e.stg.Events(after, max)
}
