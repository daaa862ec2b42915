package ranges

import (
	"os"

	"github.com/stride-labs/stridecheck/internal/errors"
)

// Store is the read-only query surface over a merged range
// specification plus the alias table. One Store is built per validation
// run and shared across all subject-task validations; it is safe for
// concurrent readers because nothing mutates it after construction.
//
// Explicitly passed, never a package-level cache: callers inject the
// Store they want to validate against.
type Store struct {
	spec    *Spec
	aliases AliasTable
}

// NewStore creates a store over an already-merged specification.
// A nil alias table means identity resolution only.
func NewStore(spec *Spec, aliases AliasTable) *Store {
	if aliases == nil {
		aliases = AliasTable{}
	}
	return &Store{spec: spec, aliases: aliases}
}

// LoadFile reads and parses a range specification from a YAML file.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigCause(path, err)
	}
	return ParseSpec(path, data)
}

// LoadLayered loads a base specification and layers zero or more
// override files on top of it, in order.
func LoadLayered(basePath string, overridePaths ...string) (*Spec, error) {
	spec, err := LoadFile(basePath)
	if err != nil {
		return nil, err
	}
	for _, p := range overridePaths {
		override, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		spec = Merge(spec, override)
	}
	return spec, nil
}

// Spec returns the underlying specification.
func (s *Store) Spec() *Spec {
	return s.spec
}

// HasTask reports whether the specification covers the task.
func (s *Store) HasTask(task string) bool {
	_, ok := s.spec.Tasks[task]
	return ok
}

// TaskNames returns the covered tasks, sorted.
func (s *Store) TaskNames() []string {
	return s.spec.TaskNames()
}

// PhasePoints returns the phase anchors defined for the task, ascending.
func (s *Store) PhasePoints(task string) []int {
	return s.spec.PhasePoints(task)
}

// ResolveAlias maps a legacy variable name to its canonical form,
// returning the input unchanged when no mapping exists.
func (s *Store) ResolveAlias(name string) string {
	return s.aliases.Resolve(name)
}

// Interval returns the interval for (task, phase, variable) after alias
// resolution, or nil when the task, phase, or variable is absent.
// Nil means unconstrained, never "fails".
func (s *Store) Interval(task string, phase int, variable string) *Interval {
	return s.spec.Interval(task, phase, s.aliases.Resolve(variable))
}

// Covers reports whether the task's specification constrains the
// variable at any phase anchor, after alias resolution.
func (s *Store) Covers(task, variable string) bool {
	tr, ok := s.spec.Tasks[task]
	if !ok {
		return false
	}
	canonical := s.aliases.Resolve(variable)
	for _, pr := range tr.Phases {
		if _, ok := pr[canonical]; ok {
			return true
		}
	}
	return false
}
