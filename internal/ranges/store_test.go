package ranges

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// TestLoadLayered verifies base plus override file loading applies
// overrides in order.
func TestLoadLayered(t *testing.T) {
	base := writeTemp(t, "base.yaml", sampleSpec)
	override := writeTemp(t, "override.yaml", `
tasks:
  level_walking:
    phases:
      "0":
        knee_flexion_angle_ipsi_rad: {min: -0.2, max: 0.5}
`)
	spec, err := LoadLayered(base, override)
	if err != nil {
		t.Fatalf("failed to load layered spec: %v", err)
	}
	iv := spec.Interval("level_walking", 0, "knee_flexion_angle_ipsi_rad")
	if iv == nil || *iv.Min != -0.2 {
		t.Errorf("override not applied: %+v", iv)
	}
	if spec.Interval("level_walking", 0, "hip_flexion_angle_ipsi_rad") == nil {
		t.Error("base entry lost during layered load")
	}
}

// TestLoadFile_Missing verifies a missing file surfaces as a config error.
func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// TestStore_ResolveAlias verifies alias-aware lookups: a legacy name
// resolves to the canonical variable defined in the specification.
func TestStore_ResolveAlias(t *testing.T) {
	spec, err := ParseSpec("test", []byte(sampleSpec))
	if err != nil {
		t.Fatalf("failed to parse spec: %v", err)
	}
	aliases, err := ParseAliases("test", []byte(`
aliases:
  knee_angle: knee_flexion_angle_ipsi_rad
`))
	if err != nil {
		t.Fatalf("failed to parse aliases: %v", err)
	}
	store := NewStore(spec, aliases)

	if got := store.ResolveAlias("knee_angle"); got != "knee_flexion_angle_ipsi_rad" {
		t.Errorf("expected canonical name, got %q", got)
	}
	if got := store.ResolveAlias("hip_flexion_angle_ipsi_rad"); got != "hip_flexion_angle_ipsi_rad" {
		t.Errorf("unmapped name must resolve to itself, got %q", got)
	}
	if store.Interval("level_walking", 0, "knee_angle") == nil {
		t.Error("interval lookup through an alias failed")
	}
	if !store.Covers("level_walking", "knee_angle") {
		t.Error("coverage check through an alias failed")
	}
}

// TestStore_Covers verifies coverage is per task, not global.
func TestStore_Covers(t *testing.T) {
	spec, err := ParseSpec("test", []byte(sampleSpec))
	if err != nil {
		t.Fatalf("failed to parse spec: %v", err)
	}
	store := NewStore(spec, nil)

	if !store.Covers("level_walking", "hip_flexion_angle_ipsi_rad") {
		t.Error("expected hip flexion covered for level_walking")
	}
	if store.Covers("incline_walking", "hip_flexion_angle_ipsi_rad") {
		t.Error("hip flexion is not defined for incline_walking")
	}
	if store.Covers("running", "knee_flexion_angle_ipsi_rad") {
		t.Error("missing task covers nothing")
	}
}

// TestParseAliases_Empty verifies an empty document is a valid empty table.
func TestParseAliases_Empty(t *testing.T) {
	table, err := ParseAliases("test", []byte(""))
	if err != nil {
		t.Fatalf("empty alias document must parse: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected empty table, got %d entries", len(table))
	}
	if got := table.Resolve("anything"); got != "anything" {
		t.Errorf("empty table must resolve to identity, got %q", got)
	}
}
