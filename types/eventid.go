package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EventID is the type that identifies a gift exchange round. It is the
// keccak256 hash of the factory address (20 bytes) and a monotonically
// increasing nonce (8 bytes, big-endian), which makes it globally unique
// across every round ever created. The value is kept as a 256-bit big-endian
// word so it can travel as two 128-bit limbs in proof public inputs.
type EventID [32]byte

// NewEventID derives the identifier of the round number `nonce` created by
// `factory`.
func NewEventID(factory common.Address, nonce uint64) EventID {
	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, nonce)
	var id EventID
	copy(id[:], crypto.Keccak256(factory.Bytes(), nonceBytes))
	return id
}

// EventIDFromBytes decodes a 32 byte slice into an EventID.
func EventIDFromBytes(data []byte) (EventID, error) {
	var id EventID
	if len(data) != len(id) {
		return id, fmt.Errorf("invalid EventID length: %d", len(data))
	}
	copy(id[:], data)
	return id, nil
}

// EventIDFromString decodes a hex string, with or without the 0x prefix,
// into an EventID.
func EventIDFromString(str string) (EventID, error) {
	data, err := hex.DecodeString(trimHexPrefix(str))
	if err != nil {
		return EventID{}, err
	}
	return EventIDFromBytes(data)
}

// EventIDFromLimbs reconstructs an EventID from its two 128-bit halves as
// they appear in proof public inputs. Each limb must fit 128 bits.
func EventIDFromLimbs(hi, lo *big.Int) (EventID, error) {
	if hi == nil || lo == nil {
		return EventID{}, fmt.Errorf("nil EventID limb")
	}
	if hi.Sign() < 0 || lo.Sign() < 0 || hi.BitLen() > EventIDLimbBits || lo.BitLen() > EventIDLimbBits {
		return EventID{}, fmt.Errorf("EventID limb exceeds %d bits", EventIDLimbBits)
	}
	full := new(big.Int).Lsh(hi, EventIDLimbBits)
	full.Or(full, lo)
	var id EventID
	full.FillBytes(id[:])
	return id, nil
}

// Bytes returns the big-endian byte representation of the EventID.
func (e EventID) Bytes() []byte {
	return bytes.Clone(e[:])
}

// BigInt returns the EventID as a 256-bit unsigned integer.
func (e EventID) BigInt() *big.Int {
	return new(big.Int).SetBytes(e[:])
}

// Hi returns the most significant 128 bits of the EventID.
func (e EventID) Hi() *big.Int {
	return new(big.Int).SetBytes(e[:16])
}

// Lo returns the least significant 128 bits of the EventID.
func (e EventID) Lo() *big.Int {
	return new(big.Int).SetBytes(e[16:])
}

// IsZero reports whether the EventID is unset.
func (e EventID) IsZero() bool {
	return e == EventID{}
}

// String returns a human readable representation of the EventID.
func (e EventID) String() string {
	return hex.EncodeToString(e[:])
}

func (e EventID) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EventID) UnmarshalText(data []byte) error {
	id, err := EventIDFromString(string(data))
	if err != nil {
		return err
	}
	*e = id
	return nil
}
