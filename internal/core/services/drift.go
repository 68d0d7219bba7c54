package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/compare"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/validator"
)

// Issue code recorded when a backend call itself fails.
const CodeBackendError = "backend_error"

// DriftChecker sends one message to several backends and compares their
// normalized intents.
type DriftChecker struct {
	backends *ports.Registry
	repo     ports.DriftRepository
	strict   bool
	logger   *zap.Logger
}

// NewDriftChecker constructs a DriftChecker. repo may be nil, in which case
// reports are returned but not stored.
func NewDriftChecker(backends *ports.Registry, repo ports.DriftRepository, strict bool, logger *zap.Logger) *DriftChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriftChecker{
		backends: backends,
		repo:     repo,
		strict:   strict,
		logger:   logger,
	}
}

type generation struct {
	raw any
	err error
}

// Check runs message through every named backend concurrently. An empty
// names slice selects every registered backend; a repeated name returns
// domain.ErrDuplicateBackend before any backend is called. The first backend, in names
// order, that produces a valid intent is the baseline.
func (d *DriftChecker) Check(ctx context.Context, message string, t domain.IntentType, names []string) (domain.DriftReport, error) {
	if len(names) == 0 {
		names = d.backends.Names()
	}
	if len(names) == 0 {
		return domain.DriftReport{}, fmt.Errorf("service: drift check: %w: none registered", ports.ErrUnknownBackend)
	}

	// 1. Resolve every backend before calling any of them
	backends := make([]ports.IntentBackend, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if seen[name] {
			return domain.DriftReport{}, fmt.Errorf("service: drift check: %w: %q", domain.ErrDuplicateBackend, name)
		}
		seen[name] = true
		b, err := d.backends.Get(name)
		if err != nil {
			return domain.DriftReport{}, fmt.Errorf("service: drift check: %w", err)
		}
		backends[i] = b
	}

	// 2. Fan out
	gens := make([]generation, len(backends))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range backends {
		g.Go(func() error {
			raw, err := b.Generate(gctx, message, t)
			gens[i] = generation{raw: raw, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return domain.DriftReport{}, fmt.Errorf("service: drift check: %w", err)
	}

	// 3. Validate and pick the baseline
	report, err := domain.NewDriftReport(uuid.NewString(), message, t)
	if err != nil {
		return domain.DriftReport{}, fmt.Errorf("service: drift check: %w", err)
	}
	opts := validator.Options{Strict: d.strict, Normalize: true}
	results := make([]validator.Result, len(gens))
	var baseline map[string]any
	for i, gen := range gens {
		if gen.err != nil && !errors.Is(gen.err, ports.ErrMalformedOutput) {
			continue
		}
		results[i] = validator.Validate(gen.raw, opts)
		if results[i].IsValid && baseline == nil {
			baseline = results[i].NormalizedIntent
			report.Baseline = names[i]
		}
	}

	// 4. Compare against the baseline
	for i, gen := range gens {
		entry := domain.DriftEntry{Backend: names[i], Errors: []domain.Issue{}, Differences: []domain.Difference{}}
		switch {
		case gen.err != nil && !errors.Is(gen.err, ports.ErrMalformedOutput):
			entry.Errors = append(entry.Errors, domain.Issue{Code: CodeBackendError, Message: gen.err.Error()})
		case !results[i].IsValid:
			entry.Errors = results[i].Errors
			entry.Output = gen.raw
		default:
			entry.Valid = true
			entry.Output = results[i].NormalizedIntent
			if names[i] != report.Baseline {
				entry.Differences = compare.Compare(baseline, results[i].NormalizedIntent).Differences
			}
		}
		if err := report.AddEntry(entry); err != nil {
			return domain.DriftReport{}, fmt.Errorf("service: drift check: %w", err)
		}
	}

	d.logger.Info("drift check complete",
		zap.String("report_id", report.ID),
		zap.String("intent_type", string(t)),
		zap.String("baseline", report.Baseline),
		zap.Bool("drifted", report.Drifted()),
	)

	// 5. Persist
	if d.repo != nil {
		if err := d.repo.Save(ctx, *report); err != nil {
			return domain.DriftReport{}, fmt.Errorf("service: save drift report: %w", err)
		}
	}
	return *report, nil
}

// Report loads a stored drift report.
func (d *DriftChecker) Report(ctx context.Context, id string) (domain.DriftReport, error) {
	if d.repo == nil {
		return domain.DriftReport{}, domain.ErrNotFound
	}
	r, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return domain.DriftReport{}, fmt.Errorf("service: load drift report: %w", err)
	}
	return r, nil
}

// Reports lists the most recent stored drift reports.
func (d *DriftChecker) Reports(ctx context.Context, limit int) ([]domain.DriftReport, error) {
	if d.repo == nil {
		return []domain.DriftReport{}, nil
	}
	out, err := d.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service: list drift reports: %w", err)
	}
	return out, nil
}
