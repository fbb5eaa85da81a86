package smt

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	gsmt "github.com/vocdoni/gnark-crypto-primitives/tree/smt"
	"github.com/vocdoni/gnark-crypto-primitives/utils"

	"github.com/giftring/giftring-core/crypto/hash/mimc"
)

const circuitLevels = 16

// proofCircuit asserts one inclusion proof with the circomlib SMT verifier
// gadget, the same gadget the protocol circuits consume proofs with.
type proofCircuit struct {
	Root     frontend.Variable
	Key      frontend.Variable
	LeafHash frontend.Variable
	Siblings [circuitLevels]frontend.Variable
}

func (circuit *proofCircuit) Define(api frontend.API) error {
	gsmt.VerifierWithLeafHash(api, utils.MiMCHasher,
		1,
		circuit.Root,
		circuit.Siblings[:],
		circuit.Key,
		circuit.LeafHash,
		0,
		circuit.Key,
		circuit.LeafHash,
		0, // inclusion
	)
	return nil
}

func proofAssignment(p *Proof, leafHash *big.Int) *proofCircuit {
	assignment := &proofCircuit{
		Root:     p.Root,
		Key:      p.Key,
		LeafHash: leafHash,
	}
	for i, sib := range p.Siblings {
		assignment.Siblings[i] = sib
	}
	return assignment
}

// TestProofInCircuit builds a MiMC tree, generates proofs and checks they
// satisfy the in-circuit verifier, which pins hash level compatibility with
// the circom circuits end to end.
func TestProofInCircuit(t *testing.T) {
	c := qt.New(t)
	hasher := mimc.New()
	tree, err := New(hasher, circuitLevels)
	c.Assert(err, qt.IsNil)

	keys, values := testEntries()
	for i := range keys {
		c.Assert(tree.Insert(keys[i], values[i]), qt.IsNil)
	}

	for _, i := range []int{0, 5, len(keys) - 1} {
		proof, err := tree.GenProof(keys[i])
		c.Assert(err, qt.IsNil)
		leafHash, err := LeafHash(hasher, proof.Key, proof.Value)
		c.Assert(err, qt.IsNil)

		err = test.IsSolved(&proofCircuit{}, proofAssignment(proof, leafHash), ecc.BN254.ScalarField())
		c.Assert(err, qt.IsNil)
	}

	// a tampered root must not satisfy the circuit
	proof, err := tree.GenProof(keys[0])
	c.Assert(err, qt.IsNil)
	leafHash, err := LeafHash(hasher, proof.Key, proof.Value)
	c.Assert(err, qt.IsNil)
	bad := proofAssignment(proof, leafHash)
	bad.Root = new(big.Int).Add(proof.Root, big.NewInt(1))
	err = test.IsSolved(&proofCircuit{}, bad, ecc.BN254.ScalarField())
	c.Assert(err, qt.IsNotNil)
}
