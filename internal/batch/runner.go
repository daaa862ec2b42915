// Package batch runs validation over many subject-task units. Units are
// independent: the range store is read-only and each cycle tensor is
// owned by its extraction call, so the pool shares no mutable state.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stride-labs/stridecheck/internal/dataset"
	"github.com/stride-labs/stridecheck/internal/errors"
	"github.com/stride-labs/stridecheck/internal/observability"
	"github.com/stride-labs/stridecheck/internal/ranges"
	"github.com/stride-labs/stridecheck/internal/report"
	"github.com/stride-labs/stridecheck/internal/validator"
	"github.com/stride-labs/stridecheck/pkg/models"
)

// Runner validates subject-task units against a range store on a
// bounded worker pool.
type Runner struct {
	store          *ranges.Store
	logger         observability.RunLogger
	workers        int
	pointsPerCycle int
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the worker pool. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithPointsPerCycle overrides the canonical cycle length.
func WithPointsPerCycle(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.pointsPerCycle = n
		}
	}
}

// WithLogger sets the run logger. Defaults to a no-op logger.
func WithLogger(l observability.RunLogger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a batch runner over a range store.
func New(store *ranges.Store, opts ...Option) *Runner {
	r := &Runner{
		store:          store,
		logger:         observability.NewNoopLogger(),
		workers:        4,
		pointsPerCycle: dataset.PointsPerCycle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome is the result of validating one unit.
type Outcome struct {
	Subject  string
	Task     string
	Result   *validator.Result
	Err      error
	Skipped  bool // true when the unit was shape-skipped
	Duration time.Duration
}

// Result is the outcome of one batch run.
type Result struct {
	RunID     string
	Units     []Outcome
	Scorecard models.Scorecard
}

// ReportUnits converts the outcomes into report generator input.
func (r *Result) ReportUnits() []report.Unit {
	units := make([]report.Unit, len(r.Units))
	for i, o := range r.Units {
		units[i] = report.Unit{
			Subject: o.Subject,
			Task:    o.Task,
			Result:  o.Result,
			Err:     o.Err,
			Skipped: o.Skipped,
		}
	}
	return units
}

// Violations returns the total violating (step, feature) pairs.
func (r *Result) Violations() int {
	n := 0
	for _, o := range r.Units {
		if o.Result != nil {
			n += o.Result.ViolationCount()
		}
	}
	return n
}

// Run validates every unit of the table (or the given subset) and
// collects per-unit outcomes plus the batch scorecard. Shape errors
// skip the unit; validation errors fail the unit; neither aborts the
// batch. The returned error is reserved for cancellation: configuration
// problems were already caught when the store was loaded.
func (r *Runner) Run(ctx context.Context, table *dataset.PhaseTable, units []dataset.SubjectTask) (*Result, error) {
	if units == nil {
		units = table.Units()
	}
	result := &Result{
		RunID: uuid.NewString(),
		Units: make([]Outcome, len(units)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, unit := range units {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result.Units[i] = r.runUnit(ctx, result.RunID, table, unit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range result.Units {
		switch {
		case o.Skipped:
			result.Scorecard.ShapeSkipped++
		case o.Err != nil:
			result.Scorecard.Failed++
		default:
			result.Scorecard.Processed++
		}
	}
	return result, nil
}

func (r *Runner) runUnit(ctx context.Context, runID string, table *dataset.PhaseTable, unit dataset.SubjectTask) Outcome {
	start := time.Now()
	out := Outcome{Subject: unit.Subject, Task: unit.Task}

	tensor, features, err := dataset.Extract(table, unit.Subject, unit.Task, table.Features(), r.pointsPerCycle)
	if err != nil {
		out.Err = err
		if _, ok := err.(*errors.ErrShape); ok {
			out.Skipped = true
		}
		out.Duration = time.Since(start)
		r.logUnit(ctx, runID, out)
		return out
	}

	res, err := validator.Validate(tensor, features, unit.Task, r.store, nil)
	out.Result = res
	out.Err = err
	out.Duration = time.Since(start)
	r.logUnit(ctx, runID, out)
	return out
}

func (r *Runner) logUnit(ctx context.Context, runID string, out Outcome) {
	entry := observability.RunLogEntry{
		RunID:    runID,
		Subject:  out.Subject,
		Task:     out.Task,
		Duration: out.Duration,
		Outcome:  "processed",
	}
	if out.Result != nil {
		entry.Steps = out.Result.Steps
		entry.Features = len(out.Result.Features)
		entry.Violations = out.Result.ViolationCount()
	}
	if out.Skipped {
		entry.Outcome = "shape_skipped"
	} else if out.Err != nil {
		entry.Outcome = "failed"
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
	}
	// Logging failures are not unit failures.
	_ = r.logger.LogUnit(ctx, entry)
}
