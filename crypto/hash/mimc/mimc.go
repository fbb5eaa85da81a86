// Package mimc adapts the gnark-crypto MiMC primitive to the hash.Hasher
// interface. Its digests match the gnark in-circuit MiMC gadget fed the same
// sequence of field elements, so trees built with it verify inside MiMC
// based circuits.
package mimc

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/giftring/giftring-core/crypto/hash"
)

// Hasher implements hash.Hasher with MiMC over the BN254 scalar field.
type Hasher struct{}

// New returns a MiMC hasher.
func New() *Hasher { return &Hasher{} }

func (h *Hasher) Type() string { return hash.TypeMiMC }

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
	d := mimc.NewMiMC()
	var elem fr.Element
	for _, input := range inputs {
		elem.SetBigInt(input)
		b := elem.Bytes()
		if _, err := d.Write(b[:]); err != nil {
			return nil, err
		}
	}
	return new(big.Int).SetBytes(d.Sum(nil)), nil
}
