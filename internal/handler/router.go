package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/audiosessions/backend/internal/config"
	"github.com/audiosessions/backend/internal/handler/auth"
	catalogHandler "github.com/audiosessions/backend/internal/handler/catalog"
	"github.com/audiosessions/backend/internal/handler/health"
	"github.com/audiosessions/backend/internal/handler/static"
	middlewarePkg "github.com/audiosessions/backend/internal/middleware"
	"github.com/audiosessions/backend/internal/model/catalog"
	accessService "github.com/audiosessions/backend/internal/service/access"
	"github.com/audiosessions/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(cfg *config.Config, store catalog.Store, gate *accessService.Gate, sessions *middlewarePkg.Sessions) (http.Handler, error) {
	defaultLimits, err := cfg.Security.DefaultLimits()
	if err != nil {
		return nil, err
	}
	authLimits, err := cfg.Security.AuthLimits()
	if err != nil {
		return nil, err
	}
	if gate == nil || sessions == nil || store == nil {
		return nil, fmt.Errorf("router requires catalog, gate and sessions")
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.Security.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middlewarePkg.Recoverer)
	r.Use(middlewarePkg.SecurityHeaders)
	r.Use(middleware.Compress(5))
	r.Use(middlewarePkg.BodyLimit(cfg.Server.MaxContentLength))
	r.Use(sessions.Load)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondErr(w, utils.NotFoundError("Resource not found"))
	})
	r.MethodNotAllowed(methodNotAllowed)

	// Create handlers
	authHandler := auth.New(gate, sessions)
	sessionHandler := catalogHandler.New(store, gate)
	healthHandler := health.New(!cfg.Security.RateLimitDisabled)
	staticHandler := static.New(cfg.Server.StaticDir)

	limitOpts := middlewarePkg.RateLimitOptions{
		Disabled:   cfg.Security.RateLimitDisabled,
		TrustProxy: cfg.Security.TrustProxy,
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.CORS(cfg.Security.CORSOrigins))
		api.Use(middlewarePkg.RateLimit(defaultLimits, limitOpts))

		api.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondErr(w, utils.NotFoundError("Resource not found"))
		})
		api.MethodNotAllowed(methodNotAllowed)

		authHandler.RegisterRoutes(api, middlewarePkg.RateLimit(authLimits, limitOpts))
		sessionHandler.RegisterRoutes(api)
		healthHandler.RegisterRoutes(api)
	})

	r.Handle("/metrics", promhttp.Handler())

	staticHandler.RegisterRoutes(r)

	return r, nil
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	utils.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
