//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 403, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the
// current last 4XXX or 5XXX. If you notice there's a gap, DON'T fill it in, that
// code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound         = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody            = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedRegistryID      = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed registry ID")}
	ErrMalformedEventID         = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed event ID")}
	ErrRegistryNotFound         = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("registry not found")}
	ErrRoundNotFound            = Error{Code: 40008, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("round not found")}
	ErrNotAdmin                 = Error{Code: 40009, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("caller is not the admin")}
	ErrRegistryFrozen           = Error{Code: 40010, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("registry is frozen")}
	ErrRegistryNotFrozen        = Error{Code: 40011, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("registry is not frozen")}
	ErrAlreadyRegistered        = Error{Code: 40012, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("participant already registered")}
	ErrNotRegistered            = Error{Code: 40013, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("participant not registered")}
	ErrWrongPhase               = Error{Code: 40014, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("operation not allowed in the current phase")}
	ErrNotMember                = Error{Code: 40015, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("caller is not in the participants snapshot")}
	ErrCommitmentUsed           = Error{Code: 40016, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("commitment already present")}
	ErrInvalidPublicInputs      = Error{Code: 40017, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid public inputs")}
	ErrProofRejected            = Error{Code: 40018, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("proof verification failed")}
	ErrNullifierSpent           = Error{Code: 40019, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("nullifier already spent")}
	ErrNullifierChosen          = Error{Code: 40020, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("nullifier already chosen")}
	ErrUnknownNullifier         = Error{Code: 40021, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("unknown sender nullifier")}
	ErrAlreadyDisclosed         = Error{Code: 40022, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("receiver already disclosed")}
	ErrAddressMismatch          = Error{Code: 40023, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("receiver address does not match caller")}
	ErrMalformedAddress         = Error{Code: 40024, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed address")}
	ErrPayloadNotFound          = Error{Code: 40025, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("payload not found")}
	ErrEventIDMismatch          = Error{Code: 40026, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("proof bound to a different event ID")}
	ErrParticipantsRootMismatch = Error{Code: 40027, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("proof bound to a different participants root")}
	ErrCommitmentsRootMismatch  = Error{Code: 40028, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("proof bound to a stale commitments root")}
	ErrMalformedProof           = Error{Code: 40029, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed proof")}
	ErrUnknownHashType          = Error{Code: 40030, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("unknown hash type")}
	ErrNotInField               = Error{Code: 40031, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("value is not in the field")}
	ErrTreeCapacity             = Error{Code: 40032, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("tree capacity reached")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)
