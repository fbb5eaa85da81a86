package smt

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/giftring/giftring-core/crypto/hash/poseidon"
)

func TestGenProofAndCheck(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	hasher := poseidon.New()
	tree, err := New(hasher, 20)
	c.Assert(err, qt.IsNil)

	keys, values := testEntries()
	for i := range keys {
		c.Assert(tree.Insert(keys[i], values[i]), qt.IsNil)
	}

	for i := range keys {
		proof, err := tree.GenProof(keys[i])
		c.Assert(err, qt.IsNil)
		c.Assert(proof.Siblings, qt.HasLen, tree.Levels())
		c.Assert(proof.Depth <= tree.Levels(), qt.IsTrue)
		// padding past the effective depth is all zeros
		for _, sib := range proof.Siblings[proof.Depth:] {
			c.Assert(sib.Sign(), qt.Equals, 0)
		}

		ok, err := proof.Verify(hasher)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)
	}

	_, err = tree.GenProof(big.NewInt(123456789))
	c.Assert(err, qt.ErrorIs, ErrKeyNotFound)
}

func TestCheckProofRejectsTampering(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	hasher := poseidon.New()
	tree, err := New(hasher, 20)
	c.Assert(err, qt.IsNil)
	keys, values := testEntries()
	for i := range keys {
		c.Assert(tree.Insert(keys[i], values[i]), qt.IsNil)
	}
	proof, err := tree.GenProof(keys[3])
	c.Assert(err, qt.IsNil)

	ok, err := CheckProof(hasher, proof.Key, big.NewInt(424242), proof.Root, proof.Siblings, proof.Depth)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	wrongRoot := new(big.Int).Add(proof.Root, big.NewInt(1))
	ok, err = CheckProof(hasher, proof.Key, proof.Value, wrongRoot, proof.Siblings, proof.Depth)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	_, err = CheckProof(hasher, proof.Key, proof.Value, proof.Root, proof.Siblings, len(proof.Siblings)+1)
	c.Assert(err, qt.IsNotNil)
	_, err = CheckProof(hasher, nil, proof.Value, proof.Root, proof.Siblings, proof.Depth)
	c.Assert(err, qt.IsNotNil)
}

// TestProofAgainstStaleRoot pins the freshness semantics rounds rely on: a
// proof stays valid against the root it was generated for, but not against
// the root after further inserts.
func TestProofAgainstStaleRoot(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	hasher := poseidon.New()
	tree, err := New(hasher, 20)
	c.Assert(err, qt.IsNil)
	c.Assert(tree.Insert(big.NewInt(10), big.NewInt(1)), qt.IsNil)
	c.Assert(tree.Insert(big.NewInt(11), big.NewInt(2)), qt.IsNil)

	proof, err := tree.GenProof(big.NewInt(10))
	c.Assert(err, qt.IsNil)
	oldRoot := tree.Root()

	c.Assert(tree.Insert(big.NewInt(12), big.NewInt(3)), qt.IsNil)

	ok, err := CheckProof(hasher, proof.Key, proof.Value, oldRoot, proof.Siblings, proof.Depth)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	ok, err = CheckProof(hasher, proof.Key, proof.Value, tree.Root(), proof.Siblings, proof.Depth)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}
