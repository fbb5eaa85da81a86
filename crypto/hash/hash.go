// Package hash defines the hash adapter consumed by the merkle tree engine
// and by key derivation. Implementations wrap a ZK friendly permutation
// behind fixed arity calls over field elements.
package hash

import (
	"fmt"
	"math/big"
)

// Hasher type names, used for configuration and persisted round snapshots.
const (
	TypePoseidon = "poseidon"
	TypeMiMC     = "mimc_bn254"
)

var (
	// ErrInputNotInField is returned when a hash input is nil, negative or
	// not reduced modulo the hasher's field.
	ErrInputNotInField = fmt.Errorf("input is not a field element")
	// ErrUnknownType is returned when a hasher type name is not recognized.
	ErrUnknownType = fmt.Errorf("unknown hasher type")
)

// Hasher is a deterministic hash over a prime field with 1, 2 and 3 input
// variants. Hash2 is used as the tree compression function and is not
// commutative. Implementations are stateless and safe for concurrent use.
type Hasher interface {
	// Type returns the hasher type name.
	Type() string
	// Len returns the byte length of a serialized digest.
	Len() int
	// Modulus returns the prime field modulus inputs must be reduced by.
	Modulus() *big.Int
	Hash1(x *big.Int) (*big.Int, error)
	Hash2(x, y *big.Int) (*big.Int, error)
	Hash3(x, y, z *big.Int) (*big.Int, error)
}

// CheckInField verifies that every input is a canonical element of the field
// defined by modulus.
func CheckInField(modulus *big.Int, inputs ...*big.Int) error {
	for _, v := range inputs {
		if v == nil || v.Sign() < 0 || v.Cmp(modulus) >= 0 {
			return fmt.Errorf("%w: %v", ErrInputNotInField, v)
		}
	}
	return nil
}
