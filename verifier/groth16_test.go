package verifier

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/hash/mimc"
	qt "github.com/frankban/quicktest"

	nativemimc "github.com/giftring/giftring-core/crypto/hash/mimc"
)

// senderStatement mirrors the sender determination statement shape: six
// public inputs, with the nullifier derived from a secret inside the
// circuit.
type senderStatement struct {
	R                frontend.Variable `gnark:",public"`
	EventIDHi        frontend.Variable `gnark:",public"`
	EventIDLo        frontend.Variable `gnark:",public"`
	ParticipantsRoot frontend.Variable `gnark:",public"`
	CommitmentsRoot  frontend.Variable `gnark:",public"`
	Nullifier        frontend.Variable `gnark:",public"`
	Secret           frontend.Variable
}

func (c *senderStatement) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.Secret, c.EventIDHi, c.EventIDLo)
	api.AssertIsEqual(c.Nullifier, h.Sum())
	return nil
}

func TestGroth16Verifier(t *testing.T) {
	c := qt.New(t)

	secret := big.NewInt(987654321)
	hi := big.NewInt(1111)
	lo := big.NewInt(2222)
	// the native adapter and the in-circuit gadget must agree on the digest
	nullifier, err := nativemimc.New().Hash3(secret, hi, lo)
	c.Assert(err, qt.IsNil)

	public := []*big.Int{big.NewInt(55), hi, lo, big.NewInt(77), big.NewInt(88), nullifier}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &senderStatement{})
	c.Assert(err, qt.IsNil)
	pk, vk, err := groth16.Setup(ccs)
	c.Assert(err, qt.IsNil)

	fullWitness, err := frontend.NewWitness(&senderStatement{
		R:                public[0],
		EventIDHi:        public[1],
		EventIDLo:        public[2],
		ParticipantsRoot: public[3],
		CommitmentsRoot:  public[4],
		Nullifier:        public[5],
		Secret:           secret,
	}, ecc.BN254.ScalarField())
	c.Assert(err, qt.IsNil)
	proof, err := groth16.Prove(ccs, pk, fullWitness)
	c.Assert(err, qt.IsNil)

	var proofBuf, vkBuf bytes.Buffer
	_, err = proof.WriteTo(&proofBuf)
	c.Assert(err, qt.IsNil)
	_, err = vk.WriteRawTo(&vkBuf)
	c.Assert(err, qt.IsNil)

	v, err := Groth16FromBytes(vkBuf.Bytes(), len(public))
	c.Assert(err, qt.IsNil)

	ok, err := v.Verify(proofBuf.Bytes(), public)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	// flipping a public input must yield a clean rejection
	bad := append([]*big.Int{}, public...)
	bad[5] = new(big.Int).Add(nullifier, big.NewInt(1))
	ok, err = v.Verify(proofBuf.Bytes(), bad)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	// wrong arity and garbage bytes are errors, not verdicts
	_, err = v.Verify(proofBuf.Bytes(), public[:5])
	c.Assert(err, qt.ErrorIs, ErrMalformedInputs)
	_, err = v.Verify([]byte("junk"), public)
	c.Assert(err, qt.ErrorIs, ErrMalformedProof)

	_, err = Groth16FromBytes([]byte("junk"), len(public))
	c.Assert(err, qt.IsNotNil)
}
