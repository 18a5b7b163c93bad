package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ewilliams-labs/shelfsound/internal/adapters/rest"
	"github.com/ewilliams-labs/shelfsound/internal/app"
	"github.com/ewilliams-labs/shelfsound/internal/config"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("load configuration")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger := logging.With("api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Adapters and services
	a, err := app.Build(ctx, cfg, true)
	if err != nil {
		logger.Error().Err(err).Msg("initialize application")
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("close resources")
		}
	}()

	// 3. HTTP interface
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           rest.NewHandler(a.Orchestrator, a.Reviews),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("storage", cfg.Storage.Driver).
		Str("cache", cfg.Cache.Driver).
		Bool("music_fallback", a.Music.FallbackMode()).
		Msg("shelfsound API is running")

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}
}
