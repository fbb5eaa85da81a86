package smt

import (
	"fmt"
	"math/big"

	"github.com/giftring/giftring-core/crypto/hash"
)

// Proof is an inclusion proof. Siblings always has one entry per tree level,
// zero padded past the effective depth, so circuits expecting fixed width
// inputs can consume it as is. Depth is the number of levels between the
// root and the leaf, which is also the number of siblings to fold.
type Proof struct {
	Key      *big.Int
	Value    *big.Int
	Root     *big.Int
	Siblings []*big.Int
	Depth    int
}

// GenProof builds an inclusion proof for key against the current root.
// Absent keys yield ErrKeyNotFound; this tree proves membership only.
func (t *Tree) GenProof(key *big.Int) (*Proof, error) {
	siblings := make([]*big.Int, t.levels)
	for i := range siblings {
		siblings[i] = big.NewInt(0)
	}
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
			return &Proof{
				Key:      new(big.Int).Set(key),
				Value:    new(big.Int).Set(n.value),
				Root:     t.Root(),
				Siblings: siblings,
				Depth:    level,
			}, nil
		case nodeInternal:
			if level >= t.levels {
				return nil, ErrKeyNotFound
			}
			var next, sib uint32
			if key.Bit(level) == 1 {
				next, sib = n.right, n.left
			} else {
				next, sib = n.left, n.right
			}
			siblings[level] = new(big.Int).Set(t.nodes[sib].hash)
			cur = next
		}
	}
}

// Verify checks the proof against its own root using the given hasher.
func (p *Proof) Verify(h hash.Hasher) (bool, error) {
	return CheckProof(h, p.Key, p.Value, p.Root, p.Siblings, p.Depth)
}

// CheckProof verifies an inclusion proof without a tree: it recomputes the
// leaf hash from key and value and folds the first depth siblings upwards,
// comparing the result against root. Nil siblings count as zero.
func CheckProof(h hash.Hasher, key, value, root *big.Int, siblings []*big.Int, depth int) (bool, error) {
	if key == nil || value == nil || root == nil {
		return false, fmt.Errorf("nil proof component")
	}
	if depth < 0 || depth > len(siblings) {
		return false, fmt.Errorf("proof depth %d out of range", depth)
	}
	acc, err := LeafHash(h, key, value)
	if err != nil {
		return false, err
	}
	zero := big.NewInt(0)
	for level := depth - 1; level >= 0; level-- {
		sib := siblings[level]
		if sib == nil {
			sib = zero
		}
		if key.Bit(level) == 1 {
			acc, err = h.Hash2(sib, acc)
		} else {
			acc, err = h.Hash2(acc, sib)
		}
		if err != nil {
			return false, err
		}
	}
	return acc.Cmp(root) == 0, nil
}
