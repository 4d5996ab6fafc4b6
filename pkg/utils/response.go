package utils

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/audiosessions/backend/internal/logging"
)

// ErrorBody is the shape of every JSON error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorBody{Error: message, Code: status})
}
