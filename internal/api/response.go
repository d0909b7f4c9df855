// Package api is reviewloop's HTTP surface: webhook ingress from the
// repository host and a read-only dashboard API over the session store.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/forgepilot/reviewloop/internal/rlerrors"
)

// APIError is the standard error response body.
type APIError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// JSONResponse writes a successful JSON response.
func JSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// JSONResponseStatus writes a JSON response with a specific status code.
func JSONResponseStatus(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// JSONError writes a plain error response at the given status.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{Error: message})
}

// HandleError inspects err and writes the status its rlerrors.Kind maps to,
// falling back to 500 for an unclassified error.
func HandleError(w http.ResponseWriter, err error) {
	kind := rlerrors.Classify(err)
	status := rlerrors.CategoryUnknown.HTTPStatus()
	if rlErr := (*rlerrors.Error)(nil); asRLError(err, &rlErr) {
		status = rlErr.HTTPStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{Error: err.Error(), Kind: string(kind)})
}

func asRLError(err error, target **rlerrors.Error) bool {
	type unwrapper interface{ Unwrap() error }
	for e := err; e != nil; {
		if rlErr, ok := e.(*rlerrors.Error); ok {
			*target = rlErr
			return true
		}
		u, ok := e.(unwrapper)
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
