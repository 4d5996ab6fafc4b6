package middleware

import (
	"net/http"

	"github.com/go-chi/httprate"

	"github.com/audiosessions/backend/internal/config"
	"github.com/audiosessions/backend/internal/logging"
	"github.com/audiosessions/backend/pkg/utils"
)

// RateLimitOptions tunes RateLimit.
type RateLimitOptions struct {
	Disabled bool
	// TrustProxy keys clients on X-Forwarded-For / X-Real-IP instead of the
	// TCP peer address, which a client cannot forge.
	TrustProxy bool
}

// RateLimit enforces every limit in limits per client IP. A request must fit
// all of them; an empty list or opts.Disabled yields a pass-through.
func RateLimit(limits []config.RateLimit, opts RateLimitOptions) func(http.Handler) http.Handler {
	if opts.Disabled || len(limits) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	keyFunc := httprate.KeyByIP
	if opts.TrustProxy {
		keyFunc = httprate.KeyByRealIP
	}

	limiters := make([]func(http.Handler) http.Handler, 0, len(limits))
	for _, limit := range limits {
		limiters = append(limiters, httprate.Limit(
			limit.Requests,
			limit.Window,
			httprate.WithKeyFuncs(keyFunc),
			httprate.WithLimitHandler(onLimit),
		))
	}

	return func(next http.Handler) http.Handler {
		for i := len(limiters) - 1; i >= 0; i-- {
			next = limiters[i](next)
		}
		return next
	}
}

func onLimit(w http.ResponseWriter, r *http.Request) {
	logging.Warn().
		Str("remote_ip", r.RemoteAddr).
		Str("path", r.URL.Path).
		Msg("rate limit exceeded")

	too := utils.TooManyRequests()
	utils.RespondJSON(w, too.Status, map[string]interface{}{
		"error":   too.Message,
		"message": "Too many requests. Please try again later.",
		"code":    too.Status,
	})
}
