package utils

import (
	"encoding/json"
	"net/http"

	"github.com/username/istisna/backend/src/logger"
)

// SendJSONError sends a JSON formatted error response with an "error" field.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if logger.L != nil {
		logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	}
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// SendJSONDetail sends a JSON error with a "detail" field. The registration and
// income endpoints keep this shape for compatibility with existing clients,
// which read errorData.detail.
func SendJSONDetail(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if logger.L != nil {
		logger.L.Warn("Sending JSON detail error to client", "detail", message, "statusCode", statusCode)
	}
	json.NewEncoder(w).Encode(map[string]string{"detail": message})
}

// WriteJSON encodes v as the response body with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger.L != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}
