package ranges

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stride-labs/stridecheck/internal/errors"
)

const sampleSpec = `
version: "2"
source: umich-2021
tasks:
  level_walking:
    phases:
      "0":
        knee_flexion_angle_ipsi_rad: {min: -0.05, max: 0.30}
        hip_flexion_angle_ipsi_rad: {min: 0.17, max: 0.70}
      "25":
        knee_flexion_angle_ipsi_rad: {min: 0.0, max: 0.45}
      "50":
        knee_flexion_angle_ipsi_rad: {min: 0.1, max: 1.0}
      "75":
        knee_flexion_angle_ipsi_rad: {min: 0.5, max: 1.4}
  incline_walking:
    phases:
      "0":
        knee_flexion_angle_ipsi_rad: {min: 0.0, max: 0.6}
`

// TestParseSpec_Valid verifies a well-formed document parses into the
// typed hierarchy.
func TestParseSpec_Valid(t *testing.T) {
	spec, err := ParseSpec("test", []byte(sampleSpec))
	if err != nil {
		t.Fatalf("failed to parse spec: %v", err)
	}
	if spec.Version != "2" {
		t.Errorf("expected version '2', got %q", spec.Version)
	}
	if len(spec.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(spec.Tasks))
	}
	got := spec.PhasePoints("level_walking")
	want := []int{0, 25, 50, 75}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("phase points mismatch (-want +got):\n%s", diff)
	}
	iv := spec.Interval("level_walking", 0, "knee_flexion_angle_ipsi_rad")
	if iv == nil {
		t.Fatal("expected interval at phase 0")
	}
	if *iv.Min != -0.05 || *iv.Max != 0.30 {
		t.Errorf("unexpected bounds: [%v, %v]", *iv.Min, *iv.Max)
	}
}

// TestParseSpec_MissingTasks verifies the required top-level tasks key.
func TestParseSpec_MissingTasks(t *testing.T) {
	_, err := ParseSpec("test", []byte("version: \"1\"\n"))
	if err == nil {
		t.Fatal("expected error for document without tasks")
	}
	if _, ok := err.(*errors.ErrConfig); !ok {
		t.Errorf("expected ErrConfig, got %T", err)
	}
}

// TestParseSpec_MinAboveMax verifies interval sanity checking at load
// time, not lookup time.
func TestParseSpec_MinAboveMax(t *testing.T) {
	doc := `
tasks:
  level_walking:
    phases:
      "0":
        knee_flexion_angle_ipsi_rad: {min: 0.5, max: 0.1}
`
	_, err := ParseSpec("test", []byte(doc))
	if err == nil {
		t.Fatal("expected error for min > max")
	}
	if _, ok := err.(*errors.ErrConfig); !ok {
		t.Errorf("expected ErrConfig, got %T", err)
	}
}

// TestParseSpec_BadPhaseKey verifies phase keys must be integers in [0, 100].
func TestParseSpec_BadPhaseKey(t *testing.T) {
	doc := `
tasks:
  level_walking:
    phases:
      "mid-stance":
        knee_flexion_angle_ipsi_rad: {min: 0.0, max: 0.1}
`
	if _, err := ParseSpec("test", []byte(doc)); err == nil {
		t.Fatal("expected error for non-integer phase key")
	}
}

// TestInterval_ClosedBounds verifies values exactly at min or max are
// inside the interval.
func TestInterval_ClosedBounds(t *testing.T) {
	min, max := -0.05, 0.30
	iv := Interval{Min: &min, Max: &max}

	for _, v := range []float64{-0.05, 0.0, 0.30} {
		if !iv.Contains(v) {
			t.Errorf("expected %v inside [-0.05, 0.30]", v)
		}
	}
	for _, v := range []float64{-0.0501, 0.3001} {
		if iv.Contains(v) {
			t.Errorf("expected %v outside [-0.05, 0.30]", v)
		}
	}
}

// TestInterval_OpenSides verifies a nil bound never rejects on that side.
func TestInterval_OpenSides(t *testing.T) {
	max := 1.0
	noMin := Interval{Max: &max}
	if !noMin.Contains(-1e9) {
		t.Error("nil min must accept arbitrarily small values")
	}
	if noMin.Contains(1.5) {
		t.Error("max must still reject when min is nil")
	}

	min := 0.0
	noMax := Interval{Min: &min}
	if !noMax.Contains(1e9) {
		t.Error("nil max must accept arbitrarily large values")
	}

	open := Interval{}
	if !open.Contains(12345.0) {
		t.Error("fully open interval must accept everything")
	}
}

// TestMerge_EmptyOverride verifies the round-trip property: merging
// with an empty override returns a spec equal to the base.
func TestMerge_EmptyOverride(t *testing.T) {
	base, err := ParseSpec("test", []byte(sampleSpec))
	if err != nil {
		t.Fatalf("failed to parse spec: %v", err)
	}
	merged := Merge(base, &Spec{Tasks: map[string]TaskRanges{}})
	if diff := cmp.Diff(base, merged); diff != "" {
		t.Errorf("merge with empty override changed the spec (-base +merged):\n%s", diff)
	}
}

// TestMerge_DeepOverride verifies entry-level replacement: only the
// matching task/phase/variable entry changes, everything else survives.
func TestMerge_DeepOverride(t *testing.T) {
	base, err := ParseSpec("test", []byte(sampleSpec))
	if err != nil {
		t.Fatalf("failed to parse spec: %v", err)
	}
	overrideDoc := `
tasks:
  level_walking:
    phases:
      "0":
        knee_flexion_angle_ipsi_rad: {min: -0.10, max: 0.35}
  running:
    phases:
      "0":
        knee_flexion_angle_ipsi_rad: {min: 0.1, max: 0.9}
`
	override, err := ParseSpec("test", []byte(overrideDoc))
	if err != nil {
		t.Fatalf("failed to parse override: %v", err)
	}
	merged := Merge(base, override)

	// Overridden entry replaced.
	iv := merged.Interval("level_walking", 0, "knee_flexion_angle_ipsi_rad")
	if iv == nil || *iv.Min != -0.10 || *iv.Max != 0.35 {
		t.Errorf("override entry not applied: %+v", iv)
	}
	// Sibling variable at the same phase preserved.
	if merged.Interval("level_walking", 0, "hip_flexion_angle_ipsi_rad") == nil {
		t.Error("sibling variable lost during merge")
	}
	// Other phases preserved.
	if merged.Interval("level_walking", 50, "knee_flexion_angle_ipsi_rad") == nil {
		t.Error("untouched phase lost during merge")
	}
	// Task unique to the override added.
	if !hasTask(merged, "running") {
		t.Error("override-only task missing after merge")
	}
	// Task unique to the base preserved.
	if !hasTask(merged, "incline_walking") {
		t.Error("base-only task missing after merge")
	}
	// Base left untouched.
	if iv := base.Interval("level_walking", 0, "knee_flexion_angle_ipsi_rad"); *iv.Min != -0.05 {
		t.Error("merge mutated the base spec")
	}
}

func hasTask(s *Spec, name string) bool {
	_, ok := s.Tasks[name]
	return ok
}

// TestSpec_IntervalMisses verifies every level of miss returns nil,
// meaning unconstrained, never a failure.
func TestSpec_IntervalMisses(t *testing.T) {
	spec, err := ParseSpec("test", []byte(sampleSpec))
	if err != nil {
		t.Fatalf("failed to parse spec: %v", err)
	}
	if spec.Interval("running", 0, "knee_flexion_angle_ipsi_rad") != nil {
		t.Error("missing task must yield nil")
	}
	if spec.Interval("level_walking", 33, "knee_flexion_angle_ipsi_rad") != nil {
		t.Error("missing phase must yield nil")
	}
	if spec.Interval("level_walking", 0, "ankle_dorsiflexion_angle_ipsi_rad") != nil {
		t.Error("missing variable must yield nil")
	}
}
