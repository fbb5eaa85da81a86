package client

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/giftring/giftring-core/api"
	"github.com/giftring/giftring-core/engine"
	"github.com/giftring/giftring-core/types"
)

// CreateRegistry creates a participant registry and returns its ID.
func (c *HTTPclient) CreateRegistry(admin common.Address, hashType string) (uuid.UUID, error) {
	resp := &api.NewRegistry{}
	err := c.doJSON(HTTPPOST, &api.NewRegistryRequest{Admin: admin, HashType: hashType}, resp,
		nil, api.RegistriesEndpoint)
	return resp.RegistryID, err
}

// ListRegistries returns the ids of every registry on the server.
func (c *HTTPclient) ListRegistries() ([]uuid.UUID, error) {
	resp := &api.RegistryList{}
	err := c.doJSON(HTTPGET, nil, resp, nil, api.RegistriesEndpoint)
	return resp.Registries, err
}

// RegistryInfo fetches the current state of a registry.
func (c *HTTPclient) RegistryInfo(id uuid.UUID) (*engine.RegistryInfo, error) {
	info := &engine.RegistryInfo{}
	if err := c.doJSON(HTTPGET, nil, info, nil, api.RegistriesEndpoint, id.String()); err != nil {
		return nil, err
	}
	return info, nil
}

// RegisterParticipants adds identities to a registry on behalf of the caller.
func (c *HTTPclient) RegisterParticipants(id uuid.UUID, caller common.Address, participants []common.Address) error {
	return c.doJSON(HTTPPOST, &api.ParticipantsRequest{Caller: caller, Participants: participants}, nil,
		nil, api.RegistriesEndpoint, id.String(), "participants")
}

// FreezeRegistry freezes a registry so it can back new rounds.
func (c *HTTPclient) FreezeRegistry(id uuid.UUID, caller common.Address) error {
	return c.doJSON(HTTPPOST, &api.CallerRequest{Caller: caller}, nil,
		nil, api.RegistriesEndpoint, id.String(), "freeze")
}

// UnfreezeRegistry reopens a frozen registry for changes.
func (c *HTTPclient) UnfreezeRegistry(id uuid.UUID, caller common.Address) error {
	return c.doJSON(HTTPPOST, &api.CallerRequest{Caller: caller}, nil,
		nil, api.RegistriesEndpoint, id.String(), "unfreeze")
}

// MembershipProof fetches an inclusion proof for identity against the
// registry's current root.
func (c *HTTPclient) MembershipProof(id uuid.UUID, identity common.Address) (*api.MembershipProof, error) {
	proof := &api.MembershipProof{}
	err := c.doJSON(HTTPGET, nil, proof,
		[]string{"identity", identity.Hex()}, api.RegistriesEndpoint, id.String(), "proof")
	if err != nil {
		return nil, err
	}
	return proof, nil
}

// CreateRound snapshots a frozen registry into a new round.
func (c *HTTPclient) CreateRound(req *api.NewRoundRequest) (*api.NewRound, error) {
	resp := &api.NewRound{}
	if err := c.doJSON(HTTPPOST, req, resp, nil, api.RoundsEndpoint); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListRounds returns the event ids of every round on the server.
func (c *HTTPclient) ListRounds() ([]types.EventID, error) {
	resp := &api.RoundList{}
	err := c.doJSON(HTTPGET, nil, resp, nil, api.RoundsEndpoint)
	return resp.Rounds, err
}

// Round fetches the full state of a round.
func (c *HTTPclient) Round(eventID types.EventID) (*types.RoundState, error) {
	st := &types.RoundState{}
	err := c.doJSON(HTTPGET, nil, st, nil, api.RoundsEndpoint, eventID.String())
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Advance moves a round to its next phase and returns the phase reached.
func (c *HTTPclient) Advance(eventID types.EventID, caller common.Address) (types.Phase, error) {
	resp := &api.PhaseResponse{}
	err := c.doJSON(HTTPPOST, &api.CallerRequest{Caller: caller}, resp,
		nil, api.RoundsEndpoint, eventID.String(), "advance")
	return resp.Phase, err
}

// Commit submits a gift commitment for a registered identity.
func (c *HTTPclient) Commit(eventID types.EventID, identity common.Address, hash *types.BigInt) error {
	return c.doJSON(HTTPPOST, &api.CommitRequest{Identity: identity, CommitmentHash: hash}, nil,
		nil, api.RoundsEndpoint, eventID.String(), "commitments")
}

// DetermineSender submits an anonymous sender proof and returns the claimed
// slot index.
func (c *HTTPclient) DetermineSender(eventID types.EventID, sub *api.ProofSubmission) (int, error) {
	resp := &api.SenderAccepted{}
	err := c.doJSON(HTTPPOST, sub, resp, nil, api.RoundsEndpoint, eventID.String(), "senders")
	return resp.Index, err
}

// Senders lists the accepted sender slots in order.
func (c *HTTPclient) Senders(eventID types.EventID) ([]types.SenderSlot, error) {
	resp := &api.SenderList{}
	err := c.doJSON(HTTPGET, nil, resp, nil, api.RoundsEndpoint, eventID.String(), "senders")
	return resp.Senders, err
}

// DiscloseReceiver submits a receiver proof with its encrypted payload.
func (c *HTTPclient) DiscloseReceiver(eventID types.EventID, sub *api.ProofSubmission) error {
	return c.doJSON(HTTPPOST, sub, nil, nil, api.RoundsEndpoint, eventID.String(), "disclosures")
}

// Payload fetches the encrypted payload disclosed under a nullifier.
func (c *HTTPclient) Payload(eventID types.EventID, nullifier *types.BigInt) (types.HexBytes, error) {
	resp := &api.PayloadResponse{}
	err := c.doJSON(HTTPGET, nil, resp,
		[]string{"nullifier", nullifier.String()}, api.RoundsEndpoint, eventID.String(), "payload")
	return resp.Payload, err
}

// Events fetches a page of the audit log starting after the given cursor.
func (c *HTTPclient) Events(after uint64, max int) (*api.EventList, error) {
	resp := &api.EventList{}
	err := c.doJSON(HTTPGET, nil, resp,
		[]string{"after", fmt.Sprintf("%d", after), "max", fmt.Sprintf("%d", max)}, api.EventsEndpoint)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
