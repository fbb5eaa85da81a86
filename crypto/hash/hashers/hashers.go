// Package hashers resolves hasher type names to implementations. It lives
// apart from crypto/hash so the implementations can import the interface
// package without a cycle.
package hashers

import (
	"fmt"

	"github.com/giftring/giftring-core/crypto/hash"
	"github.com/giftring/giftring-core/crypto/hash/mimc"
	"github.com/giftring/giftring-core/crypto/hash/poseidon"
)

// New returns the hasher registered under the given type name.
func New(typ string) (hash.Hasher, error) {
	switch typ {
	case hash.TypePoseidon:
		return poseidon.New(), nil
	case hash.TypeMiMC:
		return mimc.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", hash.ErrUnknownType, typ)
	}
}
