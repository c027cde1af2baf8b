package api

import (
	"encoding/json"
	"net/http"

	"github.com/steelhand/steelhand/internal/log"
)

// ErrorResponse is the JSON body returned for all error statuses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any, logger log.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, errName, message string, logger log.Logger) {
	writeJSON(w, status, ErrorResponse{Error: errName, Message: message}, logger)
}
