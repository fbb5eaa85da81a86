package api

import (
	"encoding/json"
	"net/http"

	"github.com/giftring/giftring-core/log"
	"github.com/giftring/giftring-core/types"
)

// newRound snapshots a frozen registry into a fresh gift exchange round
// POST /rounds
func (a *API) newRound(w http.ResponseWriter, r *http.Request) {
	req := &NewRoundRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}

	eventID, err := a.engine.CreateRound(req.RegistryID, req.HashType, req.CommitmentsDepth)
	if err != nil {
		fromError(err).Write(w)
		return
	}
	st, err := a.engine.Round(eventID)
	if err != nil {
		fromError(err).Write(w)
		return
	}

	log.Infow("new round", "eventId", eventID.String(), "registryId", req.RegistryID.String(),
		"participantsRoot", st.ParticipantsRoot.String())
	httpWriteJSON(w, &NewRound{
		EventID:          eventID,
		ParticipantsRoot: st.ParticipantsRoot,
		Phase:            st.Phase,
	})
}

// roundList lists the event IDs of the known rounds
// GET /rounds
func (a *API) roundList(w http.ResponseWriter, r *http.Request) {
	httpWriteJSON(w, &RoundList{Rounds: a.engine.ListRounds()})
}

// roundInfo returns the full state of a round
// GET /rounds/{eventId}
func (a *API) roundInfo(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	st, err := a.engine.Round(eventID)
	if err != nil {
		fromError(err).Write(w)
		return
	}
	httpWriteJSON(w, st)
}

// advanceRound moves a round to its next phase
// POST /rounds/{eventId}/advance
func (a *API) advanceRound(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	req := &CallerRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	phase, err := a.engine.Advance(eventID, req.Caller)
	if err != nil {
		fromError(err).Write(w)
		return
	}
	log.Infow("round advanced", "eventId", eventID.String(), "phase", phase.String())
	httpWriteJSON(w, &PhaseResponse{Phase: phase})
}

// newCommitment submits a gift commitment for a registered identity
// POST /rounds/{eventId}/commitments
func (a *API) newCommitment(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	req := &CommitRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.CommitmentHash == nil {
		ErrMalformedBody.With("missing commitment hash").Write(w)
		return
	}

	if err := a.engine.Commit(eventID, req.Identity, req.CommitmentHash.MathBigInt()); err != nil {
		fromError(err).Write(w)
		return
	}

	log.Infow("commitment accepted", "eventId", eventID.String(), "identity", req.Identity.Hex())
	httpWriteOK(w)
}

// determineSender verifies an anonymous sender proof and claims a slot
// POST /rounds/{eventId}/senders
func (a *API) determineSender(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	req := &ProofSubmission{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}

	index, err := a.engine.DetermineSender(eventID, req.Proof, bigInts(req.PublicInputs))
	if err != nil {
		fromError(err).Write(w)
		return
	}

	log.Infow("sender determined", "eventId", eventID.String(), "index", index)
	httpWriteJSON(w, &SenderAccepted{Index: index})
}

// senderList lists the accepted sender slots in order
// GET /rounds/{eventId}/senders
func (a *API) senderList(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	senders, err := a.engine.Senders(eventID)
	if err != nil {
		fromError(err).Write(w)
		return
	}
	httpWriteJSON(w, &SenderList{Senders: senders})
}

// discloseReceiver verifies a receiver proof and stores the encrypted payload
// POST /rounds/{eventId}/disclosures
func (a *API) discloseReceiver(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	req := &ProofSubmission{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}

	err := a.engine.DiscloseReceiver(eventID, req.Caller, req.Proof, bigInts(req.PublicInputs), req.Payload)
	if err != nil {
		fromError(err).Write(w)
		return
	}

	log.Infow("receiver disclosed", "eventId", eventID.String(), "caller", req.Caller.Hex())
	httpWriteOK(w)
}

// roundPayload returns the encrypted payload disclosed under a nullifier
// GET /rounds/{eventId}/payload?nullifier=...
func (a *API) roundPayload(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	nullifier := new(types.BigInt)
	if err := nullifier.UnmarshalText([]byte(r.URL.Query().Get("nullifier"))); err != nil {
		ErrMalformedBody.Withf("could not parse nullifier: %v", err).Write(w)
		return
	}

	payload, err := a.engine.Payload(eventID, nullifier.MathBigInt())
	if err != nil {
		fromError(err).Write(w)
		return
	}
	if payload == nil {
		ErrPayloadNotFound.Write(w)
		return
	}
	httpWriteJSON(w, &PayloadResponse{Payload: payload})
}
