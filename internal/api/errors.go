package api

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error envelope returned by every failing endpoint.
// Message carries optional detail; Errors carries per-field validation
// messages.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes an error envelope response.
func writeError(w http.ResponseWriter, status int, errMsg string) {
	writeJSON(w, status, ErrorResponse{Error: errMsg})
}

// writeValidationError writes a 400 response with per-field messages.
func writeValidationError(w http.ResponseWriter, errs []string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  "Validation failed",
		Errors: errs,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, message)
}

// writeInternalError writes a 500 error response with optional detail.
func writeInternalError(w http.ResponseWriter, errMsg, message string) {
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   errMsg,
		Message: message,
	})
}
