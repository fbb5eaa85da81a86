package verifier

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/circom2gnark/parser"
)

// CircomGroth16 verifies snarkjs Groth16 proofs against a fixed circom
// verification key by converting both to gnark form and checking the proof
// natively. Proof bytes are the snarkjs proof JSON document.
type CircomGroth16 struct {
	vk       *parser.CircomVerificationKey
	nbInputs int
}

// NewCircomGroth16 parses a snarkjs verification key JSON document.
func NewCircomGroth16(vkJSON []byte, nbInputs int) (*CircomGroth16, error) {
	vk, err := parser.UnmarshalCircomVerificationKeyJSON(vkJSON)
	if err != nil {
		return nil, fmt.Errorf("cannot parse verification key: %w", err)
	}
	return &CircomGroth16{vk: vk, nbInputs: nbInputs}, nil
}

func (v *CircomGroth16) Verify(proof []byte, publicInputs []*big.Int) (bool, error) {
	if len(publicInputs) != v.nbInputs {
		return false, fmt.Errorf("%w: expected %d public inputs, got %d",
			ErrMalformedInputs, v.nbInputs, len(publicInputs))
	}
	proofData, err := parser.UnmarshalCircomProofJSON(proof)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	signals := make([]string, len(publicInputs))
	for i, input := range publicInputs {
		if input == nil {
			return false, fmt.Errorf("%w: nil input", ErrMalformedInputs)
		}
		signals[i] = input.String()
	}
	gnarkProof, err := parser.ConvertCircomToGnark(v.vk, proofData, signals)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	ok, err := parser.VerifyProof(gnarkProof)
	if err != nil {
		return false, nil
	}
	return ok, nil
}
