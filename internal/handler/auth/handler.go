package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/audiosessions/backend/internal/logging"
	middlewarePkg "github.com/audiosessions/backend/internal/middleware"
	"github.com/audiosessions/backend/internal/model/access"
	accessService "github.com/audiosessions/backend/internal/service/access"
	"github.com/audiosessions/backend/internal/validation"
	"github.com/audiosessions/backend/pkg/utils"
)

// Gate is the part of the access service the handlers need.
type Gate interface {
	Authenticate(ctx context.Context, password string) (access.Session, error)
	VerifyPassword(password string) bool
	Logout(ctx context.Context, token string) error
}

// CookieJar binds session tokens to the client.
type CookieJar interface {
	Issue(w http.ResponseWriter, token string) error
	Clear(w http.ResponseWriter)
}

// Handler serves the private zone password endpoints.
type Handler struct {
	gate    Gate
	cookies CookieJar
}

// New 创建认证处理器
func New(gate Gate, cookies CookieJar) *Handler {
	return &Handler{
		gate:    gate,
		cookies: cookies,
	}
}

// RegisterRoutes mounts the endpoints; limit guards the two password checks.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Group(func(guarded chi.Router) {
		if limit != nil {
			guarded.Use(limit)
		}
		guarded.Post("/auth", h.handleAuthenticate)
		guarded.Post("/verify-password", h.handleVerifyPassword)
	})
	r.Post("/logout", h.handleLogout)
}

type passwordRequest struct {
	Password *string `json:"password" validate:"required"`
}

func (h *Handler) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	password, err := decodePassword(r)
	if err != nil {
		utils.RespondErr(w, err)
		return
	}

	session, err := h.gate.Authenticate(r.Context(), password)
	if err != nil {
		if errors.Is(err, accessService.ErrInvalidPassword) {
			logging.Warn().Str("remote_ip", r.RemoteAddr).Msg("failed private zone authentication")
			utils.RespondErr(w, utils.AuthError("Invalid password"))
			return
		}
		logging.Error().Err(err).Msg("authentication failed")
		utils.RespondErr(w, utils.InternalError("Authentication failed"))
		return
	}

	if err := h.cookies.Issue(w, session.Token); err != nil {
		logging.Error().Err(err).Msg("failed to issue session cookie")
		_ = h.gate.Logout(r.Context(), session.Token)
		utils.RespondErr(w, utils.InternalError("Authentication failed"))
		return
	}

	// Replace any session the client was already holding.
	if previous := middlewarePkg.TokenFromContext(r.Context()); previous != "" && previous != session.Token {
		if err := h.gate.Logout(r.Context(), previous); err != nil {
			logging.Warn().Err(err).Msg("failed to drop previous session")
		}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Authentication successful",
	})
}

func (h *Handler) handleVerifyPassword(w http.ResponseWriter, r *http.Request) {
	password, err := decodePassword(r)
	if err != nil {
		var httpErr *utils.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusBadRequest {
			utils.RespondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"access": false,
				"error":  httpErr.Message,
			})
			return
		}
		utils.RespondErr(w, err)
		return
	}

	if h.gate.VerifyPassword(password) {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"access": true})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"access": false,
		"error":  "Invalid password",
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Logout(r.Context(), middlewarePkg.TokenFromContext(r.Context())); err != nil {
		logging.Error().Err(err).Msg("logout failed")
		utils.RespondErr(w, utils.InternalError(""))
		return
	}

	h.cookies.Clear(w)
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}

// decodePassword reads {"password": "..."}; a present but empty password is
// returned as-is so that it fails the comparison rather than validation.
func decodePassword(r *http.Request) (string, error) {
	var payload passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return "", utils.PayloadTooLarge()
		}
		return "", utils.ValidationError("Password required")
	}

	if err := validation.ValidateStruct(&payload); err != nil {
		return "", utils.ValidationError("Password required")
	}
	return *payload.Password, nil
}
