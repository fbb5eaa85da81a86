package api

import (
	"encoding/json"
	"net/http"

	"github.com/giftring/giftring-core/log"
	"github.com/giftring/giftring-core/types"
)

// newRegistry creates a new participant registry
// POST /registries
func (a *API) newRegistry(w http.ResponseWriter, r *http.Request) {
	req := &NewRegistryRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}

	id, err := a.engine.CreateRegistry(req.Admin, req.HashType)
	if err != nil {
		fromError(err).Write(w)
		return
	}

	log.Infow("new registry", "registryId", id.String(), "admin", req.Admin.Hex())
	httpWriteJSON(w, &NewRegistry{RegistryID: id})
}

// registryList lists the known registry IDs
// GET /registries
func (a *API) registryList(w http.ResponseWriter, r *http.Request) {
	ids, err := a.engine.ListRegistries()
	if err != nil {
		fromError(err).Write(w)
		return
	}
	httpWriteJSON(w, &RegistryList{Registries: ids})
}

// registryInfo returns the current state of a registry
// GET /registries/{registryId}
func (a *API) registryInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := registryIDParam(w, r)
	if !ok {
		return
	}
	info, err := a.engine.Registry(id)
	if err != nil {
		fromError(err).Write(w)
		return
	}
	httpWriteJSON(w, info)
}

// registerParticipants adds identities to a registry
// POST /registries/{registryId}/participants
func (a *API) registerParticipants(w http.ResponseWriter, r *http.Request) {
	id, ok := registryIDParam(w, r)
	if !ok {
		return
	}
	req := &ParticipantsRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if len(req.Participants) == 0 {
		ErrMalformedBody.With("no participants provided").Write(w)
		return
	}

	if err := a.engine.RegisterParticipants(id, req.Caller, req.Participants); err != nil {
		fromError(err).Write(w)
		return
	}

	log.Infow("participants registered", "registryId", id.String(), "count", len(req.Participants))
	httpWriteOK(w)
}

// membershipProof proves an identity against the registry's current root
// GET /registries/{registryId}/proof?identity=0x...
func (a *API) membershipProof(w http.ResponseWriter, r *http.Request) {
	id, ok := registryIDParam(w, r)
	if !ok {
		return
	}
	identity, ok := addressQuery(w, r, "identity")
	if !ok {
		return
	}
	proof, err := a.engine.MembershipProof(id, identity)
	if err != nil {
		fromError(err).Write(w)
		return
	}

	siblings := make([]*types.BigInt, len(proof.Siblings))
	for i, s := range proof.Siblings {
		siblings[i] = new(types.BigInt).SetBigInt(s)
	}
	httpWriteJSON(w, &MembershipProof{
		Identity: identity,
		Key:      new(types.BigInt).SetBigInt(proof.Key),
		Value:    new(types.BigInt).SetBigInt(proof.Value),
		Root:     new(types.BigInt).SetBigInt(proof.Root),
		Siblings: siblings,
		Depth:    proof.Depth,
	})
}

// freezeRegistry freezes a registry so rounds can snapshot it
// POST /registries/{registryId}/freeze
func (a *API) freezeRegistry(w http.ResponseWriter, r *http.Request) {
	id, ok := registryIDParam(w, r)
	if !ok {
		return
	}
	req := &CallerRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.engine.FreezeRegistry(id, req.Caller); err != nil {
		fromError(err).Write(w)
		return
	}
	log.Infow("registry frozen", "registryId", id.String())
	httpWriteOK(w)
}

// unfreezeRegistry reopens a frozen registry for changes
// POST /registries/{registryId}/unfreeze
func (a *API) unfreezeRegistry(w http.ResponseWriter, r *http.Request) {
	id, ok := registryIDParam(w, r)
	if !ok {
		return
	}
	req := &CallerRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.engine.UnfreezeRegistry(id, req.Caller); err != nil {
		fromError(err).Write(w)
		return
	}
	log.Infow("registry unfrozen", "registryId", id.String())
	httpWriteOK(w)
}
