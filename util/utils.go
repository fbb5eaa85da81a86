package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// TrimHex strips an optional 0x prefix from a hex string.
func TrimHex(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// AddressToField returns the canonical field embedding of an address, the
// address bytes read as a big-endian 160 bit unsigned integer.
func AddressToField(addr common.Address) *big.Int {
	return new(big.Int).SetBytes(addr.Bytes())
}

// AddressFromField decodes the embedding produced by AddressToField. Values
// that do not fit the address bit width are rejected rather than truncated.
func AddressFromField(v *big.Int) (common.Address, error) {
	if v == nil || v.Sign() < 0 || v.BitLen() > 8*common.AddressLength {
		return common.Address{}, fmt.Errorf("value does not fit an address")
	}
	var addr common.Address
	v.FillBytes(addr[:])
	return addr, nil
}
