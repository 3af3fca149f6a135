package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lugegod/LugeRelay/internal/sequence"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeAlreadyRunning = "already_running"
	ErrCodeNotRunning     = "not_running"
	ErrCodeOutOfRange     = "out_of_range"
	ErrCodeScanInProgress = "scan_in_progress"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeSequenceError maps sequence engine errors onto the API error taxonomy.
func writeSequenceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sequence.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, ErrCodeAlreadyRunning, "a sequence is already running")
	case errors.Is(err, sequence.ErrNotRunning):
		writeError(w, http.StatusConflict, ErrCodeNotRunning, "no sequence is running")
	case errors.Is(err, sequence.ErrOutOfRange):
		writeError(w, http.StatusBadRequest, ErrCodeOutOfRange, err.Error())
	default:
		writeInternalError(w, "sequence operation failed")
	}
}
