// Package validator is the range-comparison engine: it evaluates each
// cycle of a subject-task tensor against the expected-value
// specification and produces the violation tensor.
//
// The validator is purely functional: no state, no retries, no unit
// conversion. Values are compared in the physical units and sign
// convention of the specification; unit harmonization is the producer's
// responsibility.
package validator

import (
	"sort"

	"github.com/stride-labs/stridecheck/internal/dataset"
	"github.com/stride-labs/stridecheck/internal/errors"
	"github.com/stride-labs/stridecheck/internal/ranges"
)

// Result is the violation tensor for one subject-task validation.
// Derived, never persisted: recomputed from tensor + specification on
// every pass.
type Result struct {
	// Task is the validated task name.
	Task string

	// Features are the evaluated feature names, in tensor order.
	// Only features present both in the tensor and (after alias
	// resolution) in the specification are evaluated.
	Features []string

	// NotEvaluated lists features that were skipped: tensor columns
	// with no specification coverage for this task, and specification
	// variables with no tensor column. Distinct from "passed".
	NotEvaluated []string

	// PhasePoints are the phase anchors checked, ascending.
	PhasePoints []int

	// Steps is the number of cycles in the tensor.
	Steps int

	// StepViolations is indexed [step][feature]: true when any anchor
	// in that cycle's trajectory fell outside its interval. Cycle-level
	// granularity for reporting.
	StepViolations [][]bool

	// PhaseViolations is indexed [step][anchor][feature]: the full
	// per-anchor detail, kept for plotting.
	PhaseViolations [][][]bool
}

// ViolationCount returns the number of violating (step, feature) pairs.
func (r *Result) ViolationCount() int {
	n := 0
	for _, row := range r.StepViolations {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// Validate evaluates every cycle of the tensor against the store's
// ranges for the task. featureNames names the tensor's feature columns,
// in order. phasePoints selects the anchors to check; nil means all
// anchors the specification defines for the task.
//
// Ranges are piecewise-constant between anchors: each anchor governs
// the span up to the next one, and comparison happens at the anchor's
// sample index only. Bounds are inclusive; a nil bound never violates.
//
// Fails with ErrMissingTask when the task has no entry in the
// specification. A feature absent from tensor or specification is
// skipped for that feature only and recorded in NotEvaluated.
func Validate(tensor *dataset.Tensor, featureNames []string, task string, store *ranges.Store, phasePoints []int) (*Result, error) {
	if !store.HasTask(task) {
		return nil, errors.NewMissingTask(task, store.TaskNames())
	}
	if phasePoints == nil {
		phasePoints = store.PhasePoints(task)
	} else {
		phasePoints = append([]int(nil), phasePoints...)
		sort.Ints(phasePoints)
	}

	// Partition tensor features into evaluated and not-evaluated.
	evaluated := make([]string, 0, len(featureNames))
	tensorCols := make([]int, 0, len(featureNames))
	var notEvaluated []string
	seen := make(map[string]bool, len(featureNames))
	for i, name := range featureNames {
		canonical := store.ResolveAlias(name)
		seen[canonical] = true
		if store.Covers(task, name) {
			evaluated = append(evaluated, name)
			tensorCols = append(tensorCols, i)
		} else {
			notEvaluated = append(notEvaluated, name)
		}
	}
	// Specification variables with no tensor column are not-evaluated too.
	for _, variable := range specVariables(store, task) {
		if !seen[variable] {
			notEvaluated = append(notEvaluated, variable)
		}
	}

	result := &Result{
		Task:         task,
		Features:     evaluated,
		NotEvaluated: notEvaluated,
		PhasePoints:  phasePoints,
		Steps:        tensor.Cycles,
	}
	result.StepViolations = make([][]bool, tensor.Cycles)
	result.PhaseViolations = make([][][]bool, tensor.Cycles)
	for c := 0; c < tensor.Cycles; c++ {
		result.StepViolations[c] = make([]bool, len(evaluated))
		result.PhaseViolations[c] = make([][]bool, len(phasePoints))
		for a := range phasePoints {
			result.PhaseViolations[c][a] = make([]bool, len(evaluated))
		}
	}

	for a, phase := range phasePoints {
		point := anchorSample(phase, tensor.Points)
		for j, name := range evaluated {
			iv := store.Interval(task, phase, name)
			if iv == nil {
				continue // unconstrained at this anchor, not a failure
			}
			col := tensorCols[j]
			for c := 0; c < tensor.Cycles; c++ {
				if !iv.Contains(tensor.At(c, point, col)) {
					result.PhaseViolations[c][a][j] = true
					result.StepViolations[c][j] = true
				}
			}
		}
	}
	return result, nil
}

// anchorSample maps a phase anchor (percent of cycle) to its sample
// index in a cycle of the given length.
func anchorSample(phase, points int) int {
	idx := phase * points / 100
	if idx >= points {
		idx = points - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// specVariables returns the variables the specification constrains for
// the task, across all anchors, sorted.
func specVariables(store *ranges.Store, task string) []string {
	set := make(map[string]bool)
	spec := store.Spec()
	tr, ok := spec.Tasks[task]
	if !ok {
		return nil
	}
	for _, pr := range tr.Phases {
		for variable := range pr {
			set[variable] = true
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
