package server

import (
	"encoding/json"
	"net/http"

	"github.com/opengamedata/ogdviz/errors"
	grapherr "github.com/opengamedata/ogdviz/graph/error"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure classifies err and writes its metadata with the matching status.
func writeFailure(w http.ResponseWriter, err error) {
	ge := grapherr.Classify(err)
	meta := ge.ToMeta()
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		meta["hint"] = hints[0]
	}
	_ = writeJSON(w, statusFor(err), meta)
}

// readJSON decodes a JSON request body. An empty body leaves v unchanged.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return err
	}
	return nil
}
