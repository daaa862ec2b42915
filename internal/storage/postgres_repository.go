package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/stride-labs/stridecheck/internal/errors"
)

// PostgresRepository implements RunRepository on PostgreSQL, for
// deployments where several people share one run history.
type PostgresRepository struct {
	db *sql.DB
}

// PostgresConfig configures the PostgreSQL repository.
type PostgresConfig struct {
	// ConnectionString is the PostgreSQL connection string.
	ConnectionString string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime.
	ConnMaxLifetime time.Duration
}

// OpenPostgres connects to PostgreSQL and applies pending migrations.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open postgres connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: postgres unreachable: %w", err)
	}
	if err := NewPostgresMigrationRunner(db).Run(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepository wraps an already-migrated database handle.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// DB exposes the underlying handle for the persistent audit logger.
func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}

// Close releases the database handle.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Create persists a new validation run.
func (r *PostgresRepository) Create(ctx context.Context, run *RunRecord) error {
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
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
func (r *PostgresRepository) Get(ctx context.Context, id string) (*RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, dataset, ranges_version, processed, shape_skipped,
		       failed, violations, created_at
		FROM validation_runs WHERE id = $1
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
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, dataset, ranges_version, processed, shape_skipped,
		       failed, violations, created_at
		FROM validation_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
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
func (r *PostgresRepository) CheckConnectivity(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("storage: postgres unreachable: %w", err)
	}
	return nil
}
