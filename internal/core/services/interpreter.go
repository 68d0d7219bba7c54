package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/validator"
)

// ErrInvalidIntent is returned alongside the validation result when a backend
// produced an intent that must not reach the executor.
var ErrInvalidIntent = errors.New("service: invalid intent")

// Interpreter asks one backend for an intent and validates it.
type Interpreter struct {
	backends *ports.Registry
	opts     validator.Options
	logger   *zap.Logger
}

// NewInterpreter constructs an Interpreter. A nil logger is replaced by a
// no-op logger.
func NewInterpreter(backends *ports.Registry, opts validator.Options, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{
		backends: backends,
		opts:     opts,
		logger:   logger,
	}
}

// Interpret generates an intent of type t for message with the named backend.
// Malformed output is validated as nil. An invalid result is returned together
// with ErrInvalidIntent.
func (i *Interpreter) Interpret(ctx context.Context, backend, message string, t domain.IntentType) (validator.Result, error) {
	requestID := uuid.NewString()
	log := i.logger.With(
		zap.String("request_id", requestID),
		zap.String("backend", backend),
		zap.String("intent_type", string(t)),
	)

	// 1. Resolve the backend
	b, err := i.backends.Get(backend)
	if err != nil {
		return validator.Result{}, fmt.Errorf("service: resolve backend: %w", err)
	}

	// 2. Generate
	raw, err := b.Generate(ctx, message, t)
	if err != nil {
		if !errors.Is(err, ports.ErrMalformedOutput) {
			return validator.Result{}, fmt.Errorf("service: generate intent: %w", err)
		}
		log.Warn("backend returned malformed output", zap.Error(err))
		raw = nil
	}

	// 3. Validate
	res := validator.Validate(raw, i.opts)
	if !res.IsValid {
		log.Warn("intent rejected",
			zap.String("classified_as", string(res.IntentType)),
			zap.Any("errors", res.Errors),
			zap.Any("warnings", res.Warnings),
		)
		return res, ErrInvalidIntent
	}
	if len(res.Warnings) > 0 {
		log.Info("intent accepted with warnings", zap.Any("warnings", res.Warnings))
	}
	return res, nil
}
