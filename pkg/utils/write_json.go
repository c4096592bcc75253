package utils

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a 200 response with the app-wide JSON envelope. Handlers
// that need another status code set it themselves before encoding.
func WriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		Logger.Errorf("failed to encode JSON response: %v", err)
	}
}
