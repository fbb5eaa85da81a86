package verifier

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
)

// Groth16 verifies gnark Groth16 proofs over BN254 against a fixed verifying
// key. Proof bytes are the gnark serialization (WriteTo or WriteRawTo).
type Groth16 struct {
	vk       groth16.VerifyingKey
	nbInputs int
}

// NewGroth16 wraps an already deserialized verifying key. nbInputs is the
// exact number of public inputs proofs for this statement carry.
func NewGroth16(vk groth16.VerifyingKey, nbInputs int) *Groth16 {
	return &Groth16{vk: vk, nbInputs: nbInputs}
}

// Groth16FromBytes deserializes a BN254 verifying key and wraps it.
func Groth16FromBytes(vkBytes []byte, nbInputs int) (*Groth16, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		return nil, fmt.Errorf("cannot read verifying key: %w", err)
	}
	return NewGroth16(vk, nbInputs), nil
}

func (v *Groth16) Verify(proof []byte, publicInputs []*big.Int) (bool, error) {
	if len(publicInputs) != v.nbInputs {
		return false, fmt.Errorf("%w: expected %d public inputs, got %d",
			ErrMalformedInputs, v.nbInputs, len(publicInputs))
	}
	p := groth16.NewProof(ecc.BN254)
	if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return false, err
	}
	values := make(chan any, len(publicInputs))
	for _, input := range publicInputs {
		if input == nil {
			return false, fmt.Errorf("%w: nil input", ErrMalformedInputs)
		}
		values <- input
	}
	close(values)
	if err := w.Fill(len(publicInputs), 0, values); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedInputs, err)
	}
	// a failed pairing check is a clean negative verdict, not an error
	if err := groth16.Verify(p, v.vk, w); err != nil {
		return false, nil
	}
	return true, nil
}
