// Package poseidon adapts the circomlib compatible Poseidon permutation from
// go-iden3-crypto to the hash.Hasher interface. It is the primary tree hash,
// producing roots that circom circuits can consume directly.
package poseidon

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/giftring/giftring-core/crypto/hash"
)

// Hasher implements hash.Hasher with Poseidon over the BN254 scalar field.
type Hasher struct{}

// New returns a Poseidon hasher.
func New() *Hasher { return &Hasher{} }

func (h *Hasher) Type() string { return hash.TypePoseidon }

func (h *Hasher) Len() int { return fr.Bytes }

func (h *Hasher) Modulus() *big.Int { return fr.Modulus() }

func (h *Hasher) Hash1(x *big.Int) (*big.Int, error) {
	return h.hash(x)
}

func (h *Hasher) Hash2(x, y *big.Int) (*big.Int, error) {
	return h.hash(x, y)
}

func (h *Hasher) Hash3(x, y, z *big.Int) (*big.Int, error) {
	return h.hash(x, y, z)
}

func (h *Hasher) hash(inputs ...*big.Int) (*big.Int, error) {
	if err := hash.CheckInField(h.Modulus(), inputs...); err != nil {
		return nil, err
	}
	return poseidon.Hash(inputs)
}
