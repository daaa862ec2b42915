package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/stride-labs/stridecheck/internal/errors"
)

// SQLiteRepository implements RunRepository on SQLite. This is the
// default backend: a single local file, no server required.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at path and applies
// pending migrations. Use ":memory:" for an in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open sqlite database: %w", err)
	}
	// modernc sqlite serializes writes itself, but a single connection
	// avoids SQLITE_BUSY under the batch runner's pool.
	db.SetMaxOpenConns(1)

	if err := NewMigrationRunner(db).Run(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

// NewSQLiteRepository wraps an already-migrated database handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// DB exposes the underlying handle for the persistent audit logger.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Create persists a new validation run.
func (r *SQLiteRepository) Create(ctx context.Context, run *RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("storage: run ID is required")
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO validation_runs (
			id, dataset, ranges_version, processed, shape_skipped,
			failed, violations, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Dataset, run.RangesVersion,
		run.Processed, run.ShapeSkipped, run.Failed,
		run.Violations, createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storage: failed to insert run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, dataset, ranges_version, processed, shape_skipped,
		       failed, violations, created_at
		FROM validation_runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewRunNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: failed to get run: %w", err)
	}
	return run, nil
}

// List returns up to limit most recent runs, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, dataset, ranges_version, processed, shape_skipped,
		       failed, violations, created_at
		FROM validation_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*RunRecord, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CheckConnectivity verifies the database is reachable.
func (r *SQLiteRepository) CheckConnectivity(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("storage: sqlite unreachable: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*RunRecord, error) {
	var run RunRecord
	var createdAt string
	err := s.Scan(&run.ID, &run.Dataset, &run.RangesVersion,
		&run.Processed, &run.ShapeSkipped, &run.Failed,
		&run.Violations, &createdAt)
	if err != nil {
		return nil, err
	}
	if t, perr := time.Parse(time.RFC3339, createdAt); perr == nil {
		run.CreatedAt = t
	}
	return &run, nil
}
