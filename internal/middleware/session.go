package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"

	"github.com/audiosessions/backend/internal/logging"
)

type sessionTokenKey struct{}

// SessionCookieConfig describes the cookie carrying the session token.
type SessionCookieConfig struct {
	Name     string
	Secret   string
	Lifetime time.Duration
	Secure   bool
}

// Sessions moves session tokens between the signed, encrypted cookie and the
// request context.
type Sessions struct {
	codec    *securecookie.SecureCookie
	name     string
	lifetime time.Duration
	secure   bool
}

// NewSessions derives the cookie signing and encryption keys from cfg.Secret.
func NewSessions(cfg SessionCookieConfig) (*Sessions, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("session cookie name is required")
	}

	kdf := hkdf.New(sha256.New, []byte(cfg.Secret), nil, []byte("audiosessions session cookie"))
	hashKey := make([]byte, 32)
	blockKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, fmt.Errorf("derive cookie hash key: %w", err)
	}
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, fmt.Errorf("derive cookie block key: %w", err)
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(cfg.Lifetime.Seconds()))

	return &Sessions{
		codec:    codec,
		name:     cfg.Name,
		lifetime: cfg.Lifetime,
		secure:   cfg.Secure,
	}, nil
}

// Load decodes the session cookie, when present and valid, into the request
// context. Tampered or stale cookies are ignored.
func (s *Sessions) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.name)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		var token string
		if err := s.codec.Decode(s.name, cookie.Value, &token); err != nil {
			logging.Debug().Err(err).Msg("discarding undecodable session cookie")
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionTokenKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Issue writes a cookie binding the client to token.
func (s *Sessions) Issue(w http.ResponseWriter, token string) error {
	encoded, err := s.codec.Encode(s.name, token)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(s.lifetime.Seconds()),
		Expires:  time.Now().Add(s.lifetime),
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie on the client.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromContext returns the session token loaded by Sessions.Load, or "".
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenKey{}).(string)
	return token
}
