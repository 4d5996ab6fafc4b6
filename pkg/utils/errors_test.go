package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rr.Body.String())
	}
	return body
}

func TestRespondErrMapsHTTPError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{ValidationError("Password required"), http.StatusBadRequest, "Password required"},
		{AuthError("Invalid password"), http.StatusUnauthorized, "Invalid password"},
		{NotFoundError("Genre not found"), http.StatusNotFound, "Genre not found"},
		{PayloadTooLarge(), http.StatusRequestEntityTooLarge, "File too large"},
		{TooManyRequests(), http.StatusTooManyRequests, "Rate limit exceeded"},
		{fmt.Errorf("wrapped: %w", AuthError("Authentication required")), http.StatusUnauthorized, "Authentication required"},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		RespondErr(rr, tt.err)

		if rr.Code != tt.status {
			t.Fatalf("%v: expected status %d, got %d", tt.err, tt.status, rr.Code)
		}
		body := decodeError(t, rr)
		if body.Error != tt.msg || body.Code != tt.status {
			t.Fatalf("%v: unexpected body %+v", tt.err, body)
		}
	}
}

func TestRespondErrMaxBytes(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondErr(rr, fmt.Errorf("decode: %w", &http.MaxBytesError{Limit: 10}))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestRespondErrHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondErr(rr, errors.New("db password is hunter2"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	body := decodeError(t, rr)
	if body.Error != "Internal server error" || body.Code != 500 {
		t.Fatalf("unexpected body %+v", body)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected content type %q", rr.Header().Get("Content-Type"))
	}
}
