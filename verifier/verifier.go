// Package verifier defines the proof verification capability the round
// engine consumes, together with implementations over gnark and circom
// (snarkjs) artifacts. Verifiers are opaque, deterministic and side effect
// free: a false verdict with a nil error is a clean cryptographic rejection,
// errors report malformed artifacts instead.
package verifier

import (
	"fmt"
	"math/big"
)

var (
	// ErrMalformedProof is returned when the proof bytes cannot be decoded.
	ErrMalformedProof = fmt.Errorf("malformed proof")
	// ErrMalformedInputs is returned when the public input vector does not
	// fit the verifier's statement.
	ErrMalformedInputs = fmt.Errorf("malformed public inputs")
)

// Verifier checks a proof against a public input vector.
type Verifier interface {
	Verify(proof []byte, publicInputs []*big.Int) (bool, error)
}

// Static is a Verifier with a fixed verdict, used in development mode and in
// tests that are not about cryptography.
type Static bool

func (s Static) Verify([]byte, []*big.Int) (bool, error) { return bool(s), nil }

// Func adapts a function to the Verifier interface, letting tests accept or
// reject by rule.
type Func func(proof []byte, publicInputs []*big.Int) (bool, error)

func (f Func) Verify(proof []byte, publicInputs []*big.Int) (bool, error) {
	return f(proof, publicInputs)
}
