// Package storage provides persistence for validation runs and the
// audit trail. The default backend is SQLite; Postgres is available for
// shared deployments.
package storage

import (
	"context"
	"time"
)

// RunRecord is one persisted batch validation run.
type RunRecord struct {
	// ID is the unique run identifier.
	ID string

	// Dataset is the input table's path or name.
	Dataset string

	// RangesVersion is the version field of the range specification
	// the run validated against.
	RangesVersion string

	// Scorecard fields.
	Processed    int
	ShapeSkipped int
	Failed       int

	// Violations is the total violating (step, feature) pairs.
	Violations int

	// CreatedAt is when the run finished.
	CreatedAt time.Time
}

// RunRepository defines the interface for validation run persistence.
// All implementations must be:
// - Thread-safe
// - Context-aware (respecting cancellation/timeout)
// - Explicit about errors (never swallow)
type RunRepository interface {
	// Create persists a new validation run.
	Create(ctx context.Context, run *RunRecord) error

	// Get retrieves a run by ID.
	// Returns ErrRunNotFound when the run does not exist.
	Get(ctx context.Context, id string) (*RunRecord, error)

	// List returns up to limit most recent runs, newest first.
	// Returns an empty slice (not nil) when no runs exist.
	List(ctx context.Context, limit int) ([]*RunRecord, error)

	// CheckConnectivity verifies the backend is reachable.
	CheckConnectivity(ctx context.Context) error
}
