package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"metaql/internal/api"
	"metaql/internal/config"
	"metaql/internal/middleware"
)

// Handler builds the HTTP handler for the app. The rate limiter's sweeper
// stops when ctx is done.
func (a *App) Handler(ctx context.Context, cfg *config.Config, logger *slog.Logger) http.Handler {
	h := api.NewHandler(a.Engine, cfg.MaxScriptBytes, logger.With("component", "api"))
	return api.NewRouter(h, api.RouterOptions{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter: middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}),
		Timeout: cfg.RequestTimeout,
		Logger:  logger.With("component", "http"),
	})
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.Handler(ctx, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr, "tls", cfg.TLSCertFile != "")
		var err error
		if cfg.TLSCertFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("server: %w", err)
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}
