package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/overture/intentengine/internal/adapters/rest"
	"github.com/ewilliams-labs/overture/intentengine/internal/app"
	"github.com/ewilliams-labs/overture/intentengine/internal/config"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/services"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/validator"
)

func main() {
	configPath := flag.String("config", "", "path to overture.yaml (searched for when empty)")
	flag.Parse()

	// 1. Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Driven adapters
	repo, closeRepo, err := app.OpenStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer closeRepo()

	backends, err := app.Backends(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize backends", zap.Error(err))
	}

	// 3. Core services
	opts := validator.Options{Strict: cfg.Validation.Strict, Normalize: cfg.Validation.Normalize}
	interpreter := services.NewInterpreter(backends, opts, logger.Named("interpreter"))
	drift := services.NewDriftChecker(backends, repo, cfg.Validation.Strict, logger.Named("drift"))

	// 4. Driving adapter
	handler := rest.NewHandler(interpreter, drift, opts, logger.Named("http"))

	// 5. Start the server
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeoutMS) * time.Millisecond,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()
	logger.Info("overture intent engine listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("storage", cfg.Storage.Driver),
		zap.Strings("backends", backends.Names()),
	)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutMS)*time.Millisecond)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}
}
