// Package smt implements a fixed depth sparse merkle tree over field
// elements, compatible at the hash level with the circomlib SMT circuits:
// leaves hash as hash3(key, value, 1), internal nodes as hash2(left, right)
// and the empty node hashes to zero. Key bits are consumed least significant
// first and a leaf sits at the first level where its path diverges from the
// existing occupancy, so the root depends only on the stored set, never on
// insertion order.
//
// The tree is insert only. Nodes live in a single arena slice addressed by
// uint32 indexes, with index 0 reserved for the shared empty sentinel.
package smt

import (
	"fmt"
	"math/big"

	"github.com/giftring/giftring-core/crypto/hash"
)

// MaxLevels is the hard cap on tree depth accepted by New.
const MaxLevels = 256

var (
	ErrKeyAlreadyPresent = fmt.Errorf("key already present in the tree")
	ErrKeyNotFound       = fmt.Errorf("key not found in the tree")
	ErrMaxLevelsReached  = fmt.Errorf("max number of tree levels reached")
)

type nodeType uint8

const (
	nodeEmpty nodeType = iota
	nodeLeaf
	nodeInternal
)

// node is one arena entry. Leaves carry key and value, internal nodes carry
// the arena indexes of their children. Index 0 always refers to the empty
// sentinel, never to a real node.
type node struct {
	typ         nodeType
	key, value  *big.Int
	left, right uint32
	hash        *big.Int
}

// Tree is a sparse merkle tree of a fixed number of levels. It is not safe
// for concurrent use.
type Tree struct {
	hasher hash.Hasher
	levels int
	nodes  []node
	root   uint32
	size   int
}

// New creates an empty tree of the given number of levels.
func New(hasher hash.Hasher, levels int) (*Tree, error) {
	if levels <= 0 || levels > MaxLevels {
		return nil, fmt.Errorf("invalid number of levels %d", levels)
	}
	return &Tree{
		hasher: hasher,
		levels: levels,
		nodes:  []node{{typ: nodeEmpty, hash: big.NewInt(0)}},
	}, nil
}

// Levels returns the number of levels of the tree.
func (t *Tree) Levels() int { return t.levels }

// Hasher returns the hash function the tree was built with.
func (t *Tree) Hasher() hash.Hasher { return t.hasher }

// Size returns the number of leaves in the tree.
func (t *Tree) Size() int { return t.size }

// Root returns the current root hash. The root of an empty tree is zero.
func (t *Tree) Root() *big.Int {
	return new(big.Int).Set(t.nodes[t.root].hash)
}

// step records one internal node crossed on the way down and the direction
// taken, so ancestors can be rehashed after a mutation.
type step struct {
	idx uint32
	bit uint
}

// Insert adds a new key to the tree. It fails with ErrKeyAlreadyPresent if
// the key is stored already and with ErrMaxLevelsReached if the key shares
// its first `levels` bits with a stored key. The tree is left untouched on
// error.
func (t *Tree) Insert(key, value *big.Int) error {
	if err := hash.CheckInField(t.hasher.Modulus(), key, value); err != nil {
		return err
	}
	var path []step
	cur := t.root
	for level := 0; ; level++ {
		switch t.nodes[cur].typ {
		case nodeEmpty:
			leaf, err := t.pushLeaf(key, value)
			if err != nil {
				return err
			}
			if err := t.attach(path, leaf); err != nil {
				return err
			}
			t.size++
			return nil

		case nodeLeaf:
			return t.splitLeaf(path, cur, level, key, value)

		case nodeInternal:
			if level >= t.levels {
				return ErrMaxLevelsReached
			}
			bit := key.Bit(level)
			path = append(path, step{idx: cur, bit: bit})
			if bit == 1 {
				cur = t.nodes[cur].right
			} else {
				cur = t.nodes[cur].left
			}
		}
	}
}

// splitLeaf pushes the leaf at index old down to the first level where its
// key diverges from the new key, hanging both leaves off a fresh chain of
// internal nodes. level is the level old currently occupies.
func (t *Tree) splitLeaf(path []step, old uint32, level int, key, value *big.Int) error {
	oldKey := t.nodes[old].key
	if oldKey.Cmp(key) == 0 {
		return ErrKeyAlreadyPresent
	}
	div := level
	for div < t.levels && oldKey.Bit(div) == key.Bit(div) {
		div++
	}
	if div >= t.levels {
		return ErrMaxLevelsReached
	}
	leaf, err := t.pushLeaf(key, value)
	if err != nil {
		return err
	}
	// internal at the divergence level holds both leaves
	var cur uint32
	if key.Bit(div) == 1 {
		cur, err = t.pushInternal(old, leaf)
	} else {
		cur, err = t.pushInternal(leaf, old)
	}
	if err != nil {
		return err
	}
	// one-armed internals fill the shared prefix back up to `level`
	for i := div - 1; i >= level; i-- {
		if key.Bit(i) == 1 {
			cur, err = t.pushInternal(0, cur)
		} else {
			cur, err = t.pushInternal(cur, 0)
		}
		if err != nil {
			return err
		}
	}
	if err := t.attach(path, cur); err != nil {
		return err
	}
	t.size++
	return nil
}

// Get returns the value stored under key, or ErrKeyNotFound if the key's
// path ends in an empty node or in a leaf holding a different key.
func (t *Tree) Get(key *big.Int) (*big.Int, error) {
	cur := t.root
	for level := 0; ; level++ {
		n := t.nodes[cur]
		switch n.typ {
		case nodeEmpty:
			return nil, ErrKeyNotFound
		case nodeLeaf:
			if n.key.Cmp(key) != 0 {
				return nil, ErrKeyNotFound
			}
			return new(big.Int).Set(n.value), nil
		case nodeInternal:
			if level >= t.levels {
				return nil, ErrKeyNotFound
			}
			if key.Bit(level) == 1 {
				cur = n.right
			} else {
				cur = n.left
			}
		}
	}
}

// pushLeaf appends a leaf node to the arena and returns its index.
func (t *Tree) pushLeaf(key, value *big.Int) (uint32, error) {
	h, err := LeafHash(t.hasher, key, value)
	if err != nil {
		return 0, err
	}
	t.nodes = append(t.nodes, node{
		typ:   nodeLeaf,
		key:   new(big.Int).Set(key),
		value: new(big.Int).Set(value),
		hash:  h,
	})
	return uint32(len(t.nodes) - 1), nil
}

// pushInternal appends an internal node to the arena and returns its index.
func (t *Tree) pushInternal(left, right uint32) (uint32, error) {
	h, err := t.hasher.Hash2(t.nodes[left].hash, t.nodes[right].hash)
	if err != nil {
		return 0, err
	}
	t.nodes = append(t.nodes, node{
		typ:   nodeInternal,
		left:  left,
		right: right,
		hash:  h,
	})
	return uint32(len(t.nodes) - 1), nil
}

// attach links child at the end of path and rehashes every ancestor. An
// empty path makes child the new root.
func (t *Tree) attach(path []step, child uint32) error {
	for i := len(path) - 1; i >= 0; i-- {
		n := &t.nodes[path[i].idx]
		if path[i].bit == 1 {
			n.right = child
		} else {
			n.left = child
		}
		h, err := t.hasher.Hash2(t.nodes[n.left].hash, t.nodes[n.right].hash)
		if err != nil {
			return err
		}
		n.hash = h
		child = path[i].idx
	}
	t.root = child
	return nil
}

// LeafHash computes the hash of a leaf, hash3(key, value, 1). The trailing 1
// domain separates leaves from internal nodes.
func LeafHash(h hash.Hasher, key, value *big.Int) (*big.Int, error) {
	return h.Hash3(key, value, big.NewInt(1))
}
