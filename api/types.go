package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/giftring/giftring-core/storage"
	"github.com/giftring/giftring-core/types"
)

// NewRegistryRequest is the request to create a new participant registry.
type NewRegistryRequest struct {
	Admin    common.Address `json:"admin"`
	HashType string         `json:"hashType,omitempty"`
}

// NewRegistry is the response to a new registry creation request.
type NewRegistry struct {
	RegistryID uuid.UUID `json:"registryId"`
}

// RegistryList is the response to a registry list request.
type RegistryList struct {
	Registries []uuid.UUID `json:"registries"`
}

// ParticipantsRequest adds identities to a registry on behalf of the caller.
type ParticipantsRequest struct {
	Caller       common.Address   `json:"caller"`
	Participants []common.Address `json:"participants"`
}

// CallerRequest carries just the caller address, for admin gated operations
// that take no other arguments.
type CallerRequest struct {
	Caller common.Address `json:"caller"`
}

// MembershipProof is the response to a membership proof request. It carries
// everything a prover needs to place the identity inside the participants
// tree: the leaf key and value, the root it verifies against and the sibling
// path up to that root.
type MembershipProof struct {
	Identity common.Address  `json:"identity"`
	Key      *types.BigInt   `json:"key"`
	Value    *types.BigInt   `json:"value"`
	Root     *types.BigInt   `json:"root"`
	Siblings []*types.BigInt `json:"siblings"`
	Depth    int             `json:"depth"`
}

// NewRoundRequest is the request to create a round from a frozen registry.
type NewRoundRequest struct {
	RegistryID       uuid.UUID `json:"registryId"`
	HashType         string    `json:"hashType,omitempty"`
	CommitmentsDepth int       `json:"commitmentsDepth,omitempty"`
}

// NewRound is the response to a round creation request.
type NewRound struct {
	EventID          types.EventID `json:"eventId"`
	ParticipantsRoot *types.BigInt `json:"participantsRoot"`
	Phase            types.Phase   `json:"phase"`
}

// RoundList is the response to a round list request.
type RoundList struct {
	Rounds []types.EventID `json:"rounds"`
}

// PhaseResponse reports the phase a round is in after an advance.
type PhaseResponse struct {
	Phase types.Phase `json:"phase"`
}

// CommitRequest submits one gift commitment on behalf of a registered
// identity.
type CommitRequest struct {
	Identity       common.Address `json:"identity"`
	CommitmentHash *types.BigInt  `json:"commitmentHash"`
}

// ProofSubmission carries a zkSNARK proof with its ordered public inputs.
// Caller and payload are only used by receiver disclosures; sender
// determinations are anonymous and leave them empty.
type ProofSubmission struct {
	Caller       common.Address  `json:"caller,omitempty"`
	Proof        types.HexBytes  `json:"proof"`
	PublicInputs []*types.BigInt `json:"publicInputs"`
	Payload      types.HexBytes  `json:"payload,omitempty"`
}

// SenderAccepted is the response to an accepted sender determination, with
// the 1-based index of the claimed slot.
type SenderAccepted struct {
	Index int `json:"index"`
}

// SenderList is the response listing the accepted sender slots in order.
type SenderList struct {
	Senders []types.SenderSlot `json:"senders"`
}

// PayloadResponse carries the encrypted payload disclosed under a nullifier.
type PayloadResponse struct {
	Payload types.HexBytes `json:"payload"`
}

// EventList is one page of the audit event log.
type EventList struct {
	Events  []storage.StoredEvent `json:"events"`
	LastSeq uint64                `json:"lastSeq"`
}
