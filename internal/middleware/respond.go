package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody matches the error shape returned by the API handlers
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
