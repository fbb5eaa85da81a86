package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// RoundCommitment is one accepted participant commitment. The ordered list of
// commitments is enough to replay the round's commitment tree, since tree
// roots do not depend on insertion order.
type RoundCommitment struct {
	Identity common.Address `json:"identity" cbor:"0,keyasint"`
	Hash     *BigInt        `json:"hash" cbor:"1,keyasint"`
}

// SenderSlot is one accepted sender determination. Slots are append-only and
// their 1-based position is the index reported by the sender-determined event.
type SenderSlot struct {
	R         *BigInt `json:"r" cbor:"0,keyasint"`
	Nullifier *BigInt `json:"nullifier" cbor:"1,keyasint"`
}

// RoundDisclosure is one accepted receiver disclosure, with the encrypted
// payload the receiver attached for the (still anonymous) sender.
type RoundDisclosure struct {
	Identity  common.Address `json:"identity" cbor:"0,keyasint"`
	Nullifier *BigInt        `json:"nullifier" cbor:"1,keyasint"`
	Payload   HexBytes       `json:"payload,omitempty" cbor:"2,keyasint,omitempty"`
}

// RoundState is the persistent snapshot of a round. It carries the complete
// bookkeeping in insertion order, so a restarted node rebuilds the round (tree
// included) bit for bit. It doubles as the round info document served by the
// API, with the heavyweight slices omitted when empty.
type RoundState struct {
	EventID          EventID           `json:"eventId" cbor:"0,keyasint"`
	RegistryID       uuid.UUID         `json:"registryId" cbor:"1,keyasint"`
	Admin            common.Address    `json:"admin" cbor:"2,keyasint"`
	Phase            Phase             `json:"phase" cbor:"3,keyasint"`
	Depth            int               `json:"depth" cbor:"4,keyasint"`
	HashType         string            `json:"hashType" cbor:"5,keyasint"`
	ParticipantsRoot *BigInt           `json:"participantsRoot" cbor:"6,keyasint"`
	CommitmentsRoot  *BigInt           `json:"commitmentsRoot" cbor:"7,keyasint"`
	Commitments      []RoundCommitment `json:"commitments,omitempty" cbor:"8,keyasint,omitempty"`
	Senders          []SenderSlot      `json:"senders,omitempty" cbor:"9,keyasint,omitempty"`
	Disclosures      []RoundDisclosure `json:"disclosures,omitempty" cbor:"10,keyasint,omitempty"`
	CreatedAt        time.Time         `json:"createdAt" cbor:"11,keyasint"`
}
