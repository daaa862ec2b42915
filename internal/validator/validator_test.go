package validator

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/stride-labs/stridecheck/internal/dataset"
	"github.com/stride-labs/stridecheck/internal/errors"
	"github.com/stride-labs/stridecheck/internal/ranges"
)

const testSpec = `
version: "1"
tasks:
  level_walking:
    phases:
      "0":
        knee_flexion_angle_ipsi_rad: {min: -0.05, max: 0.30}
        hip_flexion_angle_ipsi_rad: {min: null, max: 0.70}
      "50":
        knee_flexion_angle_ipsi_rad: {min: 0.1, max: 1.0}
`

func testStore(t *testing.T) *ranges.Store {
	t.Helper()
	spec, err := ranges.ParseSpec("test", []byte(testSpec))
	if err != nil {
		t.Fatalf("failed to parse spec: %v", err)
	}
	return ranges.NewStore(spec, ranges.AliasTable{
		"knee_angle": "knee_flexion_angle_ipsi_rad",
	})
}

// flatTensor builds a tensor of the given shape where every sample of a
// feature holds the same value, so anchor position does not matter.
func flatTensor(cycles, points int, perFeature []float64) *dataset.Tensor {
	nf := len(perFeature)
	data := make([]float64, cycles*points*nf)
	for i := range data {
		data[i] = perFeature[i%nf]
	}
	return &dataset.Tensor{Cycles: cycles, Points: points, Features: nf, Data: data}
}

// TestValidate_ViolationAtAnchor verifies a value above max at phase 0
// is flagged for that step and feature.
func TestValidate_ViolationAtAnchor(t *testing.T) {
	store := testStore(t)
	tensor := flatTensor(2, 150, []float64{0.35})

	result, err := Validate(tensor, []string{"knee_flexion_angle_ipsi_rad"}, "level_walking", store, nil)
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if result.Steps != 2 {
		t.Fatalf("expected 2 steps, got %d", result.Steps)
	}
	// 0.35 > 0.30 at phase 0; 0.35 is inside [0.1, 1.0] at phase 50.
	for c := 0; c < 2; c++ {
		if !result.StepViolations[c][0] {
			t.Errorf("step %d: expected violation", c)
		}
		if !result.PhaseViolations[c][0][0] {
			t.Errorf("step %d: expected violation at phase 0", c)
		}
		if result.PhaseViolations[c][1][0] {
			t.Errorf("step %d: phase 50 must pass", c)
		}
	}
	if result.ViolationCount() != 2 {
		t.Errorf("expected 2 violating step-feature pairs, got %d", result.ViolationCount())
	}
}

// TestValidate_BoundaryPasses verifies inclusive bounds: a value exactly
// at max is not a violation.
func TestValidate_BoundaryPasses(t *testing.T) {
	store := testStore(t)
	tensor := flatTensor(1, 150, []float64{0.30})

	result, err := Validate(tensor, []string{"knee_flexion_angle_ipsi_rad"}, "level_walking", store, []int{0})
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if result.StepViolations[0][0] {
		t.Error("value exactly at max must pass")
	}
}

// TestValidate_OpenBound verifies a null min never rejects low values.
func TestValidate_OpenBound(t *testing.T) {
	store := testStore(t)
	tensor := flatTensor(1, 150, []float64{-5.0})

	result, err := Validate(tensor, []string{"hip_flexion_angle_ipsi_rad"}, "level_walking", store, []int{0})
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if result.StepViolations[0][0] {
		t.Error("open min bound must accept arbitrarily low values")
	}
}

// TestValidate_NaNViolatesBoundedSide verifies NaN samples fail any
// bounded interval rather than passing silently.
func TestValidate_NaNViolatesBoundedSide(t *testing.T) {
	store := testStore(t)
	tensor := flatTensor(1, 150, []float64{math.NaN()})

	result, err := Validate(tensor, []string{"knee_flexion_angle_ipsi_rad"}, "level_walking", store, []int{0})
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if !result.StepViolations[0][0] {
		t.Error("NaN must violate a bounded interval")
	}
}

// TestValidate_MissingTask verifies an uncovered task is surfaced as an
// error listing the known tasks, never validated against a default.
func TestValidate_MissingTask(t *testing.T) {
	store := testStore(t)
	tensor := flatTensor(1, 150, []float64{0.2})

	_, err := Validate(tensor, []string{"knee_flexion_angle_ipsi_rad"}, "running", store, nil)
	var missing *errors.ErrMissingTask
	if !stderrors.As(err, &missing) {
		t.Fatalf("expected ErrMissingTask, got %v", err)
	}
	if missing.Task != "running" {
		t.Errorf("expected task 'running', got %q", missing.Task)
	}
	if len(missing.Known) != 1 || missing.Known[0] != "level_walking" {
		t.Errorf("expected known tasks [level_walking], got %v", missing.Known)
	}
}

// TestValidate_NotEvaluated verifies the three-way outcome: an
// uncovered tensor column and an uncolumned specification variable are
// both recorded as not evaluated, distinct from passing.
func TestValidate_NotEvaluated(t *testing.T) {
	store := testStore(t)
	tensor := flatTensor(1, 150, []float64{0.2})

	result, err := Validate(tensor, []string{"pelvis_tilt_angle_rad"}, "level_walking", store, nil)
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if len(result.Features) != 0 {
		t.Errorf("expected no evaluated features, got %v", result.Features)
	}
	want := map[string]bool{
		"pelvis_tilt_angle_rad":       true, // tensor column without coverage
		"knee_flexion_angle_ipsi_rad": true, // spec variable without a column
		"hip_flexion_angle_ipsi_rad":  true,
	}
	if len(result.NotEvaluated) != len(want) {
		t.Fatalf("expected %d not-evaluated entries, got %v", len(want), result.NotEvaluated)
	}
	for _, name := range result.NotEvaluated {
		if !want[name] {
			t.Errorf("unexpected not-evaluated entry %q", name)
		}
	}
}

// TestValidate_AliasedFeature verifies a tensor column under a legacy
// name is evaluated against the canonical variable's ranges.
func TestValidate_AliasedFeature(t *testing.T) {
	store := testStore(t)
	tensor := flatTensor(1, 150, []float64{0.35})

	result, err := Validate(tensor, []string{"knee_angle"}, "level_walking", store, []int{0})
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if len(result.Features) != 1 || result.Features[0] != "knee_angle" {
		t.Fatalf("expected aliased feature evaluated, got %v", result.Features)
	}
	if !result.StepViolations[0][0] {
		t.Error("0.35 must violate [-0.05, 0.30] through the alias")
	}
	// The canonical spec variable is represented by the alias column,
	// so it must not also appear as not-evaluated.
	for _, name := range result.NotEvaluated {
		if name == "knee_flexion_angle_ipsi_rad" {
			t.Error("aliased variable wrongly listed as not evaluated")
		}
	}
}

// TestAnchorSample verifies phase percent to sample index mapping,
// including clamping at 100%.
func TestAnchorSample(t *testing.T) {
	cases := []struct {
		phase, points, want int
	}{
		{0, 150, 0},
		{25, 150, 37},
		{50, 150, 75},
		{75, 150, 112},
		{100, 150, 149},
	}
	for _, c := range cases {
		if got := anchorSample(c.phase, c.points); got != c.want {
			t.Errorf("anchorSample(%d, %d) = %d, want %d", c.phase, c.points, got, c.want)
		}
	}
}
