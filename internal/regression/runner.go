package regression

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/compare"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/jsonv"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/validator"
	"github.com/ewilliams-labs/overture/intentengine/internal/worker"
)

// BackendResult is how one recorded output fared.
type BackendResult struct {
	Backend    string           `json:"backend"`
	Validation validator.Result `json:"validation"`
	// TypeMatch is false when the case names a type and the output was
	// classified as another.
	TypeMatch bool `json:"typeMatch"`
	// VsExpect is set when the case has an expectation and the output is valid.
	VsExpect *compare.Result `json:"vsExpect,omitempty"`
	// VsBaseline is set for valid outputs other than the baseline.
	VsBaseline *compare.Result `json:"vsBaseline,omitempty"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	ID       string            `json:"id"`
	Message  string            `json:"message"`
	Type     domain.IntentType `json:"type"`
	Baseline string            `json:"baseline"`
	Backends []BackendResult   `json:"backends"`
	// Drifted is true when a valid output differs from the baseline.
	Drifted bool `json:"drifted"`
	Passed  bool `json:"passed"`
}

// Summary aggregates a run. Results keep the battery order.
type Summary struct {
	Total   int          `json:"total"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Drifted int          `json:"drifted"`
	Results []CaseResult `json:"results"`
}

// Runner evaluates batteries on a worker pool.
type Runner struct {
	workers int
	repo    ports.DriftRepository
	logger  *zap.Logger
}

// NewRunner constructs a Runner. When repo is non-nil every case is also
// stored as a drift report.
func NewRunner(workers int, repo ports.DriftRepository, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{workers: workers, repo: repo, logger: logger}
}

// Run evaluates every case concurrently. Cases are independent; a failing
// case never stops the others.
func (r *Runner) Run(ctx context.Context, b *Battery) (Summary, error) {
	results := make([]CaseResult, len(b.Cases))

	// 1. Fan the cases out over the pool
	pool := worker.NewPool(r.workers, len(b.Cases), r.logger)
	pool.Start(ctx)
	for i, c := range b.Cases {
		err := pool.Submit(ctx, worker.Job{ID: c.ID, Run: func(ctx context.Context) error {
			results[i] = Evaluate(c)
			return nil
		}})
		if err != nil {
			pool.Stop()
			return Summary{}, fmt.Errorf("regression: run: %w", err)
		}
	}
	pool.Stop()
	if err := ctx.Err(); err != nil {
		return Summary{}, fmt.Errorf("regression: run: %w", err)
	}

	// 2. Summarize and persist
	sum := Summary{Total: len(results), Results: results}
	for _, res := range results {
		if res.Passed {
			sum.Passed++
		} else {
			sum.Failed++
		}
		if res.Drifted {
			sum.Drifted++
		}
		if r.repo != nil {
			report, err := res.Report()
			if err != nil {
				return Summary{}, fmt.Errorf("regression: run: %w", err)
			}
			if err := r.repo.Save(ctx, report); err != nil {
				return Summary{}, fmt.Errorf("regression: save case %s: %w", res.ID, err)
			}
		}
	}

	r.logger.Info("battery complete",
		zap.Int("total", sum.Total),
		zap.Int("passed", sum.Passed),
		zap.Int("failed", sum.Failed),
		zap.Int("drifted", sum.Drifted),
	)
	return sum, nil
}

// Evaluate validates every output of c with normalization, compares each
// valid one against the expectation and against the baseline (the first
// valid output in backend-name order). A case passes only when every output
// is valid, of the expected type, equal to the expectation and equal to the
// baseline.
func Evaluate(c Case) CaseResult {
	res := CaseResult{ID: c.ID, Message: c.Message, Type: c.Type, Passed: true}
	opts := validator.Options{Strict: c.Strict, Normalize: true}

	var expect map[string]any
	if c.Expect != nil {
		expect = validator.Validate(c.Expect, validator.Options{Normalize: true}).NormalizedIntent
		if expect == nil {
			// An invalid expectation is compared as written.
			expect = c.Expect
		}
	}

	var baseline map[string]any
	for _, name := range c.Backends() {
		br := BackendResult{Backend: name, Validation: validator.Validate(decodeOutput(c.Outputs[name]), opts)}
		br.TypeMatch = c.Type == "" || br.Validation.IntentType == c.Type

		if br.Validation.IsValid {
			if expect != nil {
				cr := compare.Compare(expect, br.Validation.NormalizedIntent)
				br.VsExpect = &cr
			}
			if baseline == nil {
				baseline = br.Validation.NormalizedIntent
				res.Baseline = name
			} else {
				cr := compare.Compare(baseline, br.Validation.NormalizedIntent)
				br.VsBaseline = &cr
			}
		}

		if br.VsBaseline != nil && !br.VsBaseline.IsEqual {
			res.Drifted = true
		}
		if !br.Validation.IsValid || !br.TypeMatch || (br.VsExpect != nil && !br.VsExpect.IsEqual) {
			res.Passed = false
		}
		res.Backends = append(res.Backends, br)
	}
	if res.Drifted {
		res.Passed = false
	}
	return res
}

func decodeOutput(v any) any {
	if s, ok := v.(string); ok {
		return jsonv.Decode(s)
	}
	return v
}

// Report converts the case into a drift report. Entries are the backends
// in name order with differences against the baseline.
func (c CaseResult) Report() (domain.DriftReport, error) {
	msg := c.Message
	if msg == "" {
		msg = "battery case " + c.ID
	}
	t := c.Type
	if t == "" {
		t = domain.DefaultIntentType
	}
	report, err := domain.NewDriftReport(uuid.NewString(), msg, t)
	if err != nil {
		return domain.DriftReport{}, err
	}
	report.Baseline = c.Baseline
	for _, br := range c.Backends {
		entry := domain.DriftEntry{
			Backend:     br.Backend,
			Valid:       br.Validation.IsValid,
			Errors:      br.Validation.Errors,
			Differences: []domain.Difference{},
		}
		if br.Validation.IsValid {
			entry.Output = br.Validation.NormalizedIntent
		}
		if br.VsBaseline != nil {
			entry.Differences = br.VsBaseline.Differences
		}
		if err := report.AddEntry(entry); err != nil {
			return domain.DriftReport{}, err
		}
	}
	return *report, nil
}
