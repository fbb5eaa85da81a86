package api

import (
	"net/http"
	"strconv"
)

// eventList returns a page of the audit event log. The after parameter is a
// cursor, clients pass the lastSeq of the previous page to resume
// GET /events?after=N&max=M
func (a *API) eventList(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if str := r.URL.Query().Get("after"); str != "" {
		parsed, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			ErrMalformedBody.Withf("could not parse after cursor: %v", err).Write(w)
			return
		}
		after = parsed
	}
	max := 0
	if str := r.URL.Query().Get("max"); str != "" {
		parsed, err := strconv.Atoi(str)
		if err != nil {
			ErrMalformedBody.Withf("could not parse max: %v", err).Write(w)
			return
		}
		max = parsed
	}

	events, err := a.engine.Events(after, max)
	if err != nil {
		fromError(err).Write(w)
		return
	}
	lastSeq := after
	if len(events) > 0 {
		lastSeq = events[len(events)-1].Seq
	}
	httpWriteJSON(w, &EventList{Events: events, LastSeq: lastSeq})
}
