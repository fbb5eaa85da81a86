// Package registry implements the long lived participant registry: a merkle
// tree of eligible identities with an open/frozen lifecycle, owned by an
// administrator. Rounds bind to the registry root by value at creation time,
// so later registry mutations never reach in-flight rounds.
package registry

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/giftring/giftring-core/crypto/hash"
	"github.com/giftring/giftring-core/events"
	"github.com/giftring/giftring-core/smt"
	"github.com/giftring/giftring-core/util"
)

var (
	ErrNotAdmin          = fmt.Errorf("caller is not the registry administrator")
	ErrFrozen            = fmt.Errorf("registry is frozen")
	ErrAlreadyFrozen     = fmt.Errorf("registry is already frozen")
	ErrNotFrozen         = fmt.Errorf("registry is not frozen")
	ErrAlreadyRegistered = fmt.Errorf("identity is already registered")
	ErrNotRegistered     = fmt.Errorf("identity is not registered")
)

// Registry stores participants in a sparse merkle tree keyed by hash1 of the
// identity's field embedding, with the embedding itself as value. The value
// lets membership checks assert that a proved leaf really belongs to the
// claimed identity. Not safe for concurrent use.
type Registry struct {
	admin   common.Address
	tree    *smt.Tree
	frozen  bool
	members []common.Address
	sink    events.Sink
}

// New creates an empty mutable registry owned by admin.
func New(admin common.Address, hasher hash.Hasher, levels int, sink events.Sink) (*Registry, error) {
	tree, err := smt.New(hasher, levels)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Registry{admin: admin, tree: tree, sink: sink}, nil
}

// Restore rebuilds a registry from its persisted description without
// emitting registration events. Member order is preserved so the rebuilt
// tree reproduces the original root.
func Restore(admin common.Address, members []common.Address, frozen bool,
	hasher hash.Hasher, levels int, sink events.Sink,
) (*Registry, error) {
	r, err := New(admin, hasher, levels, sink)
	if err != nil {
		return nil, err
	}
	for _, identity := range members {
		key, err := r.key(identity)
		if err != nil {
			return nil, err
		}
		if err := r.tree.Insert(key, util.AddressToField(identity)); err != nil {
			return nil, fmt.Errorf("registry restore: %w", err)
		}
		r.members = append(r.members, identity)
	}
	r.frozen = frozen
	return r, nil
}

// Admin returns the owning administrator address.
func (r *Registry) Admin() common.Address { return r.admin }

// Frozen reports whether the registry accepts registrations.
func (r *Registry) Frozen() bool { return r.frozen }

// Root returns the current tree root.
func (r *Registry) Root() *big.Int { return r.tree.Root() }

// Size returns the number of registered identities.
func (r *Registry) Size() int { return r.tree.Size() }

// Levels returns the depth of the registry tree.
func (r *Registry) Levels() int { return r.tree.Levels() }

// Hasher returns the hash function of the registry tree.
func (r *Registry) Hasher() hash.Hasher { return r.tree.Hasher() }

// Members returns the registered identities in registration order.
func (r *Registry) Members() []common.Address {
	out := make([]common.Address, len(r.members))
	copy(out, r.members)
	return out
}

// key derives the tree key of an identity.
func (r *Registry) key(identity common.Address) (*big.Int, error) {
	return r.tree.Hasher().Hash1(util.AddressToField(identity))
}

// Register adds one identity. Only the administrator can register, and only
// while the registry is mutable.
func (r *Registry) Register(caller, identity common.Address) error {
	return r.RegisterBatch(caller, []common.Address{identity})
}

// RegisterBatch adds identities atomically: every identity is validated
// before the first one is inserted, so a rejected batch leaves the registry
// untouched.
func (r *Registry) RegisterBatch(caller common.Address, identities []common.Address) error {
	if caller != r.admin {
		return ErrNotAdmin
	}
	if r.frozen {
		return ErrFrozen
	}
	keys := make([]*big.Int, len(identities))
	seen := make(map[common.Address]struct{}, len(identities))
	for i, identity := range identities {
		if _, ok := seen[identity]; ok {
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, identity.Hex())
		}
		seen[identity] = struct{}{}
		key, err := r.key(identity)
		if err != nil {
			return err
		}
		if _, err := r.tree.Get(key); err == nil {
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, identity.Hex())
		} else if !errors.Is(err, smt.ErrKeyNotFound) {
			return err
		}
		keys[i] = key
	}
	for i, identity := range identities {
		if err := r.tree.Insert(keys[i], util.AddressToField(identity)); err != nil {
			// unreachable after the presence checks above
			return fmt.Errorf("registry insert: %w", err)
		}
		r.members = append(r.members, identity)
		r.sink.Emit(events.New(events.KindRegistration, map[string]string{
			"address": identity.Hex(),
		}))
	}
	return nil
}

// Freeze makes the registry immutable, fixing the root rounds will bind to.
func (r *Registry) Freeze(caller common.Address) error {
	if caller != r.admin {
		return ErrNotAdmin
	}
	if r.frozen {
		return ErrAlreadyFrozen
	}
	r.frozen = true
	r.sink.Emit(events.New(events.KindFreeze, map[string]string{
		"root": r.tree.Root().String(),
		"size": strconv.Itoa(r.tree.Size()),
	}))
	return nil
}

// Unfreeze reopens the registry for administrative correction. Rounds
// created while it was frozen keep their snapshot root.
func (r *Registry) Unfreeze(caller common.Address) error {
	if caller != r.admin {
		return ErrNotAdmin
	}
	if !r.frozen {
		return ErrNotFrozen
	}
	r.frozen = false
	r.sink.Emit(events.New(events.KindUnfreeze, map[string]string{
		"root": r.tree.Root().String(),
	}))
	return nil
}

// ProofFor generates a membership proof for identity against the current
// root. Works before and after freezing.
func (r *Registry) ProofFor(identity common.Address) (*smt.Proof, error) {
	key, err := r.key(identity)
	if err != nil {
		return nil, err
	}
	proof, err := r.tree.GenProof(key)
	if errors.Is(err, smt.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, identity.Hex())
	}
	return proof, err
}

// MembershipNode returns the value stored for identity, its canonical field
// embedding, or ErrNotRegistered when the identity is absent.
func (r *Registry) MembershipNode(identity common.Address) (*big.Int, error) {
	key, err := r.key(identity)
	if err != nil {
		return nil, err
	}
	value, err := r.tree.Get(key)
	if errors.Is(err, smt.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, identity.Hex())
	}
	return value, err
}
