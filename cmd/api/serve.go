package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/audiosessions/backend/internal/config"
	"github.com/audiosessions/backend/internal/handler"
	"github.com/audiosessions/backend/internal/logging"
	"github.com/audiosessions/backend/internal/middleware"
	"github.com/audiosessions/backend/internal/model/catalog"
	"github.com/audiosessions/backend/internal/service/access"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audiosessions",
		Short: "Audio sessions catalog backend",
		Long: `Serves the audio sessions catalog API, the password-protected private
zone and the single-page frontend.

Configuration comes from config.yaml (or CONFIG_PATH), then the environment;
a .env file in the working directory is loaded first when present.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(newHashPasswordCmd())
	cmd.AddCommand(newCatalogCmd())

	return cmd
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if cfg.Auth.SecretGenerated {
		logging.Warn().Msg("SECRET_KEY not set, using a random key; sessions will not survive a restart")
	}

	sessionStore := access.NewMemoryStore()
	gate, err := access.NewGate(access.Config{
		Password:     cfg.Auth.Password,
		PasswordHash: cfg.Auth.PasswordHash,
		Lifetime:     cfg.Auth.SessionLifetime,
	}, sessionStore)
	if err != nil {
		return fmt.Errorf("failed to initialize access gate: %w", err)
	}

	sessions, err := middleware.NewSessions(middleware.SessionCookieConfig{
		Name:     cfg.Auth.CookieName,
		Secret:   cfg.Auth.SecretKey,
		Lifetime: cfg.Auth.SessionLifetime,
		Secure:   cfg.Server.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session cookies: %w", err)
	}

	store := catalog.NewMemoryStore(catalog.Seed())

	router, err := handler.NewRouter(cfg, store, gate, sessions)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	go gate.RunJanitor(ctx, cfg.Auth.SweepInterval)

	return startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr, err := serverCfg.Addr()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logging.Info().
		Str("addr", addr).
		Str("environment", serverCfg.Environment).
		Str("static_dir", serverCfg.StaticDir).
		Msg("audio sessions backend listening")
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logging.Info().Msg("server stopped")
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
