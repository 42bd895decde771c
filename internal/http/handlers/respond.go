package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies at 100KB
const maxBodyBytes = 100 << 10

var errBodyTooLarge = errors.New("Request body too large")

// errorResponse is the body of every non-2xx response without a record
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// respondJSON writes body as JSON with the given status
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// respondWithError sends {"message": ...}
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, errorResponse{Message: message})
}

// respondWithInternalError sends {"message": ..., "error": ...}
func respondWithInternalError(w http.ResponseWriter, message string, err error) {
	respondJSON(w, http.StatusInternalServerError, errorResponse{Message: message, Error: err.Error()})
}

// readBody reads at most maxBodyBytes of the request body
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, err
	}
	return body, nil
}

// NotFound answers unknown routes with JSON
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed answers known routes hit with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
