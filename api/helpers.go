package api

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/giftring/giftring-core/log"
	"github.com/giftring/giftring-core/types"
)

// httpWriteJSON writes data as a JSON response body with a trailing newline.
// Marshaling happens before the header goes out, so encoding failures still
// reach the client as a proper error status.
func httpWriteJSON(w http.ResponseWriter, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Warnw("failed to write http response", "error", err)
		return
	}
	log.Debugw("api response", "bytes", len(body), "data", strings.ReplaceAll(string(body), "\"", ""))
}

// httpWriteOK writes an empty 200 response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
}

// registryIDParam extracts the registry ID from the request URL. On a
// malformed ID it writes the error response and reports false.
func registryIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, RegistryURLParam))
	if err != nil {
		ErrMalformedRegistryID.WithErr(err).Write(w)
		return uuid.Nil, false
	}
	return id, true
}

// eventIDParam extracts the round event ID from the request URL. On a
// malformed ID it writes the error response and reports false.
func eventIDParam(w http.ResponseWriter, r *http.Request) (types.EventID, bool) {
	id, err := types.EventIDFromString(chi.URLParam(r, EventIDURLParam))
	if err != nil {
		ErrMalformedEventID.WithErr(err).Write(w)
		return types.EventID{}, false
	}
	return id, true
}

// addressQuery extracts an address from the named query parameter. On a
// missing or malformed address it writes the error response and reports
// false.
func addressQuery(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	str := r.URL.Query().Get(name)
	if !common.IsHexAddress(str) {
		ErrMalformedAddress.Withf("query parameter %q", name).Write(w)
		return common.Address{}, false
	}
	return common.HexToAddress(str), true
}

// bigInts converts the JSON representation of the public inputs into the
// raw integers the engine consumes. Nil elements stay nil so the engine can
// reject them in its own terms.
func bigInts(inputs []*types.BigInt) []*big.Int {
	out := make([]*big.Int, len(inputs))
	for i, v := range inputs {
		out[i] = v.MathBigInt()
	}
	return out
}
