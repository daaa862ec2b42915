package storage

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stride-labs/stridecheck/internal/errors"
)

func sampleRun(id string, createdAt time.Time) *RunRecord {
	return &RunRecord{
		ID:            id,
		Dataset:       "gait.parquet",
		RangesVersion: "2",
		Processed:     10,
		ShapeSkipped:  1,
		Failed:        2,
		Violations:    37,
		CreatedAt:     createdAt,
	}
}

// repositoryContract exercises the RunRepository behavior common to all
// backends: create, round-trip, not-found, and newest-first listing.
func repositoryContract(t *testing.T, repo RunRepository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := repo.Create(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("failed to create %s: %v", id, err)
		}
	}

	got, err := repo.Get(ctx, "run-b")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Dataset != "gait.parquet" || got.Processed != 10 || got.Violations != 37 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("created_at mismatch: %v", got.CreatedAt)
	}

	_, err = repo.Get(ctx, "run-missing")
	var notFound *errors.ErrRunNotFound
	if !stderrors.As(err, &notFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}

	runs, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}

	if err := repo.CheckConnectivity(ctx); err != nil {
		t.Errorf("connectivity check failed: %v", err)
	}
}

// TestMockRepository runs the repository contract against the in-memory
// backend.
func TestMockRepository(t *testing.T) {
	repositoryContract(t, NewMockRepository())
}

// TestMockRepository_CopiesRecords verifies mutations after Create do
// not leak into the stored record.
func TestMockRepository_CopiesRecords(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()

	run := sampleRun("run-a", time.Now().UTC())
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	run.Processed = 999

	got, err := repo.Get(ctx, "run-a")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Processed != 10 {
		t.Errorf("stored record shares memory with the caller: %+v", got)
	}
}

// TestSQLiteRepository runs the repository contract against an
// in-memory SQLite database, covering the migrations too.
func TestSQLiteRepository(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer repo.Close()

	repositoryContract(t, repo)
}

// TestSQLiteRepository_DuplicateID verifies the primary key rejects a
// second run with the same ID.
func TestSQLiteRepository_DuplicateID(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer repo.Close()

	run := sampleRun("run-a", time.Now().UTC())
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if err := repo.Create(ctx, run); err == nil {
		t.Error("expected error for duplicate run ID")
	}
}

// TestSQLiteRepository_EmptyList verifies List returns an empty slice,
// not nil, on a fresh database.
func TestSQLiteRepository_EmptyList(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer repo.Close()

	runs, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if runs == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

// TestMigrations_Idempotent verifies rerunning migrations on an
// already-migrated database is a no-op.
func TestMigrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer repo.Close()

	if err := NewMigrationRunner(repo.DB()).Run(ctx); err != nil {
		t.Errorf("second migration pass failed: %v", err)
	}
}
