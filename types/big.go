package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals JSON to a literal decimal string
// and CBOR to its big-endian byte representation. Values are assumed
// non-negative (they are field elements).
type BigInt big.Int

// MathBigInt converts b to a math/big *big.Int.
func (i *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(i)
}

func (i *BigInt) String() string {
	if i == nil {
		return ""
	}
	return i.MathBigInt().String()
}

// SetUint64 sets i to x and returns i.
func (i *BigInt) SetUint64(x uint64) *BigInt {
	return (*BigInt)(i.MathBigInt().SetUint64(x))
}

// SetBigInt sets i to x and returns i.
func (i *BigInt) SetBigInt(x *big.Int) *BigInt {
	return (*BigInt)(i.MathBigInt().Set(x))
}

// Equal compares i and j by value, treating nil as zero.
func (i *BigInt) Equal(j *BigInt) bool {
	switch {
	case i == nil && j == nil:
		return true
	case i == nil:
		return j.MathBigInt().Sign() == 0
	case j == nil:
		return i.MathBigInt().Sign() == 0
	}
	return i.MathBigInt().Cmp(j.MathBigInt()) == 0
}

func (i *BigInt) MarshalText() ([]byte, error) {
	if i == nil {
		return []byte(""), nil
	}
	return i.MathBigInt().MarshalText()
}

func (i *BigInt) UnmarshalText(data []byte) error {
	s := trimHexPrefix(string(data))
	base := 10
	if s != string(data) {
		base = 16
	}
	if _, ok := i.MathBigInt().SetString(s, base); !ok {
		return fmt.Errorf("invalid big number %q", data)
	}
	return nil
}

func (i *BigInt) MarshalCBOR() ([]byte, error) {
	if i == nil {
		return cbor.Marshal([]byte{})
	}
	return cbor.Marshal(i.MathBigInt().Bytes())
}

func (i *BigInt) UnmarshalCBOR(data []byte) error {
	var buf []byte
	if err := cbor.Unmarshal(data, &buf); err != nil {
		return err
	}
	i.MathBigInt().SetBytes(buf)
	return nil
}
