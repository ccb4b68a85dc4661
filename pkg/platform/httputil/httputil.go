// Package httputil writes the JSON envelope every API response uses:
//
//	{"success": true, "data": ...}
//	{"success": false, "error": {"message": "...", "details": {...}}}
//	{"success": false, "error": "Internal server error"}
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "recruitline/pkg/domain-errors"
)

// InternalErrorMessage is the only error text clients see for 5xx responses.
const InternalErrorMessage = "Internal server error"

// Envelope is the response body shape shared by all routes.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

// ErrorBody is the structured error for client-facing failures.
type ErrorBody struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a success envelope around data.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

// WriteError maps err to a status code and writes a failure envelope. Errors
// that are not domain errors are treated as internal.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		de = dErrors.Wrap(err, dErrors.CodeInternal, InternalErrorMessage)
	}
	status := StatusFor(de.Code)
	if status >= http.StatusInternalServerError {
		WriteJSON(w, status, Envelope{Success: false, Error: InternalErrorMessage})
		return
	}
	WriteJSON(w, status, Envelope{
		Success: false,
		Error:   ErrorBody{Message: de.Message, Details: de.Details},
	})
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeConflict, dErrors.CodeInvalidState:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
