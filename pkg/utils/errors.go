package utils

import (
	"errors"
	"net/http"

	"github.com/audiosessions/backend/internal/logging"
)

// HTTPError is an error that already knows how it should be reported to the client.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// ValidationError reports missing or malformed input.
func ValidationError(message string) *HTTPError {
	return &HTTPError{Status: http.StatusBadRequest, Message: message}
}

// AuthError reports bad credentials or a missing session.
func AuthError(message string) *HTTPError {
	return &HTTPError{Status: http.StatusUnauthorized, Message: message}
}

func NotFoundError(message string) *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: message}
}

func PayloadTooLarge() *HTTPError {
	return &HTTPError{Status: http.StatusRequestEntityTooLarge, Message: "File too large"}
}

func TooManyRequests() *HTTPError {
	return &HTTPError{Status: http.StatusTooManyRequests, Message: "Rate limit exceeded"}
}

// InternalError hides the underlying fault behind a generic message.
func InternalError(message string) *HTTPError {
	if message == "" {
		message = "Internal server error"
	}
	return &HTTPError{Status: http.StatusInternalServerError, Message: message}
}

// RespondErr writes err as a JSON error body. Errors that are not HTTPErrors
// are logged and reported as a generic 500.
func RespondErr(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		RespondError(w, httpErr.Status, httpErr.Message)
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		too := PayloadTooLarge()
		RespondError(w, too.Status, too.Message)
		return
	}

	logging.Error().Err(err).Msg("unhandled error")
	internal := InternalError("")
	RespondError(w, internal.Status, internal.Message)
}
