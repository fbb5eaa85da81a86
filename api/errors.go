package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/giftring/giftring-core/crypto/hash"
	"github.com/giftring/giftring-core/engine"
	"github.com/giftring/giftring-core/log"
	"github.com/giftring/giftring-core/registry"
	"github.com/giftring/giftring-core/round"
	"github.com/giftring/giftring-core/smt"
	"github.com/giftring/giftring-core/storage"
	"github.com/giftring/giftring-core/storage/registrydb"
	"github.com/giftring/giftring-core/verifier"
)

// Error is the API error envelope. Handlers pick one from the catalog in
// errors_definition.go, optionally annotate it, and Write it; the client
// sees a stable numeric code plus a human readable message.
type Error struct {
	Err        error
	Code       int
	HTTPstatus int
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the wrapped sentinel so errors.Is sees through annotations.
func (e Error) Unwrap() error {
	return e.Err
}

// MarshalJSON emits the wire form of the error, for example
// {"error":"round not found","code":40008}. The HTTP status travels in the
// response status line, not the body.
func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Err  string `json:"error"`
		Code int    `json:"code"`
	}{e.Err.Error(), e.Code})
}

// Write sends the error to the client as a JSON body under e.HTTPstatus.
func (e Error) Write(w http.ResponseWriter) {
	body, err := json.Marshal(e)
	if err != nil {
		log.Warn(err)
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	log.Debugw("API error response", "error", e.Error(), "code", e.Code, "httpStatus", e.HTTPstatus)
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, string(body), e.HTTPstatus)
}

// annotate clones e with extra detail appended to the message, preserving
// the catalog code and status.
func (e Error) annotate(detail string) Error {
	e.Err = fmt.Errorf("%w: %s", e.Err, detail)
	return e
}

// Withf appends a formatted detail string to the error message.
func (e Error) Withf(format string, args ...any) Error {
	return e.annotate(fmt.Sprintf(format, args...))
}

// With appends a detail string to the error message.
func (e Error) With(s string) Error {
	return e.annotate(s)
}

// WithErr appends another error's message while keeping e's code.
func (e Error) WithErr(err error) Error {
	return e.annotate(err.Error())
}

// fromError translates the sentinel errors returned by the engine and the
// protocol packages into catalog errors, so every handler maps domain
// failures to codes the same way. Errors with no mapping are reported as a
// generic internal server error.
func fromError(err error) Error {
	switch {
	case errors.Is(err, registrydb.ErrRegistryNotFound):
		return ErrRegistryNotFound
	case errors.Is(err, engine.ErrRoundNotFound):
		return ErrRoundNotFound
	case errors.Is(err, registry.ErrNotAdmin), errors.Is(err, round.ErrNotAdmin):
		return ErrNotAdmin
	case errors.Is(err, registry.ErrFrozen), errors.Is(err, registry.ErrAlreadyFrozen):
		return ErrRegistryFrozen
	case errors.Is(err, registry.ErrNotFrozen), errors.Is(err, round.ErrRegistryNotFrozen):
		return ErrRegistryNotFrozen
	case errors.Is(err, registry.ErrAlreadyRegistered):
		return ErrAlreadyRegistered
	case errors.Is(err, registry.ErrNotRegistered):
		return ErrNotRegistered
	case errors.Is(err, round.ErrWrongPhase):
		return ErrWrongPhase
	case errors.Is(err, round.ErrNotMember):
		return ErrNotMember
	case errors.Is(err, round.ErrCommitmentUsed), errors.Is(err, smt.ErrKeyAlreadyPresent):
		return ErrCommitmentUsed
	case errors.Is(err, round.ErrInvalidPublicInputs):
		return ErrInvalidPublicInputs
	case errors.Is(err, round.ErrProofInvalid):
		return ErrProofRejected
	case errors.Is(err, round.ErrNullifierSpent):
		return ErrNullifierSpent
	case errors.Is(err, round.ErrNullifierChosen):
		return ErrNullifierChosen
	case errors.Is(err, round.ErrUnknownNullifier):
		return ErrUnknownNullifier
	case errors.Is(err, round.ErrAlreadyDisclosed):
		return ErrAlreadyDisclosed
	case errors.Is(err, round.ErrAddressMismatch):
		return ErrAddressMismatch
	case errors.Is(err, round.ErrEventIDMismatch):
		return ErrEventIDMismatch
	case errors.Is(err, round.ErrParticipantsRootMismatch):
		return ErrParticipantsRootMismatch
	case errors.Is(err, round.ErrCommitmentsRootMismatch):
		return ErrCommitmentsRootMismatch
	case errors.Is(err, verifier.ErrMalformedProof), errors.Is(err, verifier.ErrMalformedInputs):
		return ErrMalformedProof
	case errors.Is(err, hash.ErrUnknownType):
		return ErrUnknownHashType
	case errors.Is(err, hash.ErrInputNotInField):
		return ErrNotInField
	case errors.Is(err, smt.ErrMaxLevelsReached):
		return ErrTreeCapacity
	case errors.Is(err, storage.ErrNotFound):
		return ErrResourceNotFound
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
