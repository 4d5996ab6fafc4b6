package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/audiosessions/backend/internal/logging"
	"github.com/audiosessions/backend/internal/metrics"
	"github.com/audiosessions/backend/internal/model/access"
)

// DefaultLifetime is how long an authenticated session stays valid.
const DefaultLifetime = 24 * time.Hour

// bcrypt ignores everything past 72 bytes; longer inputs never match.
const maxPasswordBytes = 72

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrSecretRequired  = errors.New("private zone password or hash is required")
)

// Config describes the shared secret guarding the private zone.
type Config struct {
	// Password is hashed once at construction. Ignored when PasswordHash is set.
	Password string
	// PasswordHash is a pre-computed bcrypt hash of the shared secret.
	PasswordHash string
	// Lifetime of an authenticated session, DefaultLifetime when zero.
	Lifetime time.Duration
	// Cost used when hashing Password, bcrypt.DefaultCost when zero.
	Cost int
}

// Gate checks the shared secret and tracks which clients unlocked the private zone.
type Gate struct {
	hash     []byte
	store    SessionStore
	lifetime time.Duration
	now      func() time.Time
}

// NewGate hashes the configured secret and binds the gate to a session store.
func NewGate(cfg Config, store SessionStore) (*Gate, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}

	var hash []byte
	switch {
	case cfg.PasswordHash != "":
		hash = []byte(cfg.PasswordHash)
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("invalid password hash: %w", err)
		}
	case cfg.Password != "":
		cost := cfg.Cost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	default:
		return nil, ErrSecretRequired
	}

	lifetime := cfg.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	return &Gate{
		hash:     hash,
		store:    store,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Lifetime returns the validity window of issued sessions.
func (g *Gate) Lifetime() time.Duration {
	return g.lifetime
}

// VerifyPassword compares password against the shared secret without creating a session.
func (g *Gate) VerifyPassword(password string) bool {
	ok := g.matches(password)
	metrics.AuthAttempts.WithLabelValues("verify", outcome(ok)).Inc()
	return ok
}

// Authenticate issues an authenticated session when password matches the shared secret.
func (g *Gate) Authenticate(ctx context.Context, password string) (access.Session, error) {
	if !g.matches(password) {
		metrics.AuthAttempts.WithLabelValues("authenticate", "invalid").Inc()
		return access.Session{}, ErrInvalidPassword
	}

	now := g.now().UTC()
	session := access.Session{
		Token:         uuid.NewString(),
		Authenticated: true,
		CreatedAt:     now,
		ExpiresAt:     now.Add(g.lifetime),
	}

	if err := g.store.Create(ctx, session); err != nil {
		metrics.AuthAttempts.WithLabelValues("authenticate", "error").Inc()
		return access.Session{}, fmt.Errorf("store session: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("authenticate", "success").Inc()
	g.refreshGauge(ctx)
	return session, nil
}

// Logout drops the session behind token. Unknown or empty tokens are ignored.
func (g *Gate) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := g.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	g.refreshGauge(ctx)
	return nil
}

// IsAuthenticated reports whether token belongs to a live authenticated session.
// Expired sessions encountered here are removed.
func (g *Gate) IsAuthenticated(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	session, err := g.store.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			logging.Error().Err(err).Msg("session lookup failed")
		}
		return false
	}

	now := g.now()
	if session.Expired(now) {
		if err := g.store.Delete(ctx, token); err != nil {
			logging.Warn().Err(err).Msg("failed to drop expired session")
		}
		g.refreshGauge(ctx)
		return false
	}
	return session.Active(now)
}

// Sweep removes every expired session and returns how many were dropped.
func (g *Gate) Sweep(ctx context.Context) (int, error) {
	removed, err := g.store.DeleteExpired(ctx, g.now())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	g.refreshGauge(ctx)
	return removed, nil
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (g *Gate) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := g.Sweep(ctx)
			if err != nil {
				logging.Error().Err(err).Msg("session sweep failed")
				continue
			}
			if removed > 0 {
				logging.Debug().Int("removed", removed).Msg("expired sessions swept")
			}
		}
	}
}

// matches runs the bcrypt comparison, which is constant time over the derived hashes.
func (g *Gate) matches(password string) bool {
	if len(password) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
}

func (g *Gate) refreshGauge(ctx context.Context) {
	if count, err := g.store.Count(ctx); err == nil {
		metrics.ActiveSessions.Set(float64(count))
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "invalid"
}
