// Package app assembles adapters from configuration for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/overture/intentengine/internal/adapters/gemini"
	"github.com/ewilliams-labs/overture/intentengine/internal/adapters/httpretry"
	"github.com/ewilliams-labs/overture/intentengine/internal/adapters/ollama"
	"github.com/ewilliams-labs/overture/intentengine/internal/adapters/openai"
	"github.com/ewilliams-labs/overture/intentengine/internal/adapters/postgres"
	"github.com/ewilliams-labs/overture/intentengine/internal/adapters/sqlite"
	"github.com/ewilliams-labs/overture/intentengine/internal/config"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
)

// backendTimeout bounds a single model call, retries excluded.
const backendTimeout = 60 * time.Second

// OpenStorage returns the drift repository selected by cfg and a function
// that releases it. The none driver returns a nil repository.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (ports.DriftRepository, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		a, err := sqlite.NewAdapter(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("app: open sqlite: %w", err)
		}
		return a, func() { _ = a.Close() }, nil
	case config.DriverPostgres:
		a, err := postgres.NewAdapter(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("app: open postgres: %w", err)
		}
		return a, a.Close, nil
	case config.DriverNone, "":
		return nil, func() {}, nil
	}
	return nil, nil, fmt.Errorf("app: unknown storage driver %q", cfg.Driver)
}

// Backends builds the enabled intent backends. The HTTP backends share one
// retrying client.
func Backends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ports.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	doer := httpretry.New(&http.Client{Timeout: backendTimeout}, cfg.Retry.MaxRetries, cfg.Retry.Backoff(), logger)

	var backends []ports.IntentBackend
	if b := cfg.Backends.Ollama; b.Enabled {
		backends = append(backends, ollama.NewClient(b.Host, b.Model, doer))
	}
	if b := cfg.Backends.OpenAI; b.Enabled {
		if b.APIKey == "" {
			return nil, errors.New("app: backends.openai.api_key is required when openai is enabled")
		}
		backends = append(backends, openai.NewClient(b.APIKey, b.BaseURL, b.Model, doer))
	}
	if b := cfg.Backends.Gemini; b.Enabled {
		c, err := gemini.NewClient(ctx, b.APIKey, b.Model)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		backends = append(backends, c)
	}

	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	logger.Info("intent backends configured", zap.Strings("backends", names))
	return ports.NewRegistry(backends...), nil
}
