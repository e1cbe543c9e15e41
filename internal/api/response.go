package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quadjournal/quad/internal/journal"
	"github.com/quadjournal/quad/internal/store"
)

// APIError is the standard error response format.
type APIError struct {
	Error string `json:"error"`
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

// JSONError writes a simple error response.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{Error: message})
}

// HandleError maps domain errors onto HTTP statuses.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidQuadrant),
		errors.Is(err, store.ErrTitleRequired),
		errors.Is(err, journal.ErrTitleRequired):
		JSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrBackupNotFound),
		errors.Is(err, journal.ErrNotFound):
		JSONError(w, err.Error(), http.StatusNotFound)
	default:
		JSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
