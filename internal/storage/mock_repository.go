package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/stride-labs/stridecheck/internal/errors"
)

// MockRepository is an in-memory RunRepository for tests.
type MockRepository struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
}

// NewMockRepository creates an empty in-memory repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{runs: make(map[string]*RunRecord)}
}

// Create persists a run in memory.
func (r *MockRepository) Create(ctx context.Context, run *RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *run
	r.runs[run.ID] = &cp
	return nil
}

// Get retrieves a run by ID.
func (r *MockRepository) Get(ctx context.Context, id string) (*RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, errors.NewRunNotFound(id)
	}
	cp := *run
	return &cp, nil
}

// List returns up to limit runs, newest first.
func (r *MockRepository) List(ctx context.Context, limit int) ([]*RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	runs := make([]*RunRecord, 0, len(r.runs))
	for _, run := range r.runs {
		cp := *run
		runs = append(runs, &cp)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// CheckConnectivity always succeeds for the mock.
func (r *MockRepository) CheckConnectivity(ctx context.Context) error {
	return ctx.Err()
}
