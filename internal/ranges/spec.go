// Package ranges provides the hierarchical expected-value specification
// for phase-normalized locomotion cycles and the store that loads,
// merges, and queries it.
//
// A specification maps task → phase anchor → variable → interval. Ranges
// are piecewise-constant between defined phase anchors, not interpolated.
package ranges

import (
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/stride-labs/stridecheck/internal/errors"
)

// Interval is an expected-value range for one variable at one phase
// anchor. A nil bound means no constraint on that side.
type Interval struct {
	Min *float64 `yaml:"min" json:"min"`
	Max *float64 `yaml:"max" json:"max"`
}

// Contains reports whether v falls inside the closed interval.
// Values exactly at Min or Max pass. A nil bound never rejects.
// NaN fails any bounded side.
func (iv Interval) Contains(v float64) bool {
	if iv.Min != nil && !(v >= *iv.Min) {
		return false
	}
	if iv.Max != nil && !(v <= *iv.Max) {
		return false
	}
	return true
}

// PhaseRanges maps a canonical variable name to its interval at one
// phase anchor.
type PhaseRanges map[string]Interval

// TaskRanges holds the per-anchor ranges for one task.
type TaskRanges struct {
	// Phases maps a phase anchor (percent of cycle, 0-100) to the
	// variable intervals defined at that anchor.
	Phases map[int]PhaseRanges `json:"phases"`
}

// Spec is the full range specification: task → phase → variable → interval.
// Loaded once per validation run and shared read-only thereafter.
type Spec struct {
	// Provenance metadata. Ignored by the validator, kept for logging.
	Version string `json:"version,omitempty"`
	Source  string `json:"source,omitempty"`
	Method  string `json:"method,omitempty"`

	// FeatureTypes optionally declares the quantity class of each
	// variable (angle, moment, force). Informational only.
	FeatureTypes map[string]string `json:"feature_types,omitempty"`

	Tasks map[string]TaskRanges `json:"tasks"`
}

// rawSpec mirrors the serialized YAML document. Phase anchors arrive as
// string keys and are validated into integers during construction.
type rawSpec struct {
	Version      string             `yaml:"version"`
	Source       string             `yaml:"source"`
	Method       string             `yaml:"method"`
	FeatureTypes map[string]string  `yaml:"feature_types"`
	Tasks        map[string]rawTask `yaml:"tasks"`
}

type rawTask struct {
	Phases map[string]map[string]Interval `yaml:"phases"`
}

// ParseSpec decodes and validates a serialized range specification.
// Fails with ErrConfig when the top-level tasks key is absent or empty,
// a phase key is not a non-negative integer, or an interval has min > max.
func ParseSpec(source string, data []byte) (*Spec, error) {
	var raw rawSpec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewConfigCause(source, err)
	}
	if raw.Tasks == nil {
		return nil, errors.NewConfig(source, "required top-level key 'tasks' is absent")
	}
	if len(raw.Tasks) == 0 {
		return nil, errors.NewConfig(source, "'tasks' is empty")
	}

	spec := &Spec{
		Version:      raw.Version,
		Source:       raw.Source,
		Method:       raw.Method,
		FeatureTypes: raw.FeatureTypes,
		Tasks:        make(map[string]TaskRanges, len(raw.Tasks)),
	}
	for task, rt := range raw.Tasks {
		tr := TaskRanges{Phases: make(map[int]PhaseRanges, len(rt.Phases))}
		for phaseKey, vars := range rt.Phases {
			phase, err := strconv.Atoi(phaseKey)
			if err != nil || phase < 0 || phase > 100 {
				return nil, errors.NewConfig(source,
					fmt.Sprintf("task %s: phase key %q is not an integer in [0, 100]", task, phaseKey))
			}
			pr := make(PhaseRanges, len(vars))
			for variable, iv := range vars {
				if iv.Min != nil && iv.Max != nil && *iv.Min > *iv.Max {
					return nil, errors.NewInvalidInterval(task, phase, variable, *iv.Min, *iv.Max)
				}
				pr[variable] = iv
			}
			tr.Phases[phase] = pr
		}
		spec.Tasks[task] = tr
	}
	return spec, nil
}

// TaskNames returns the tasks covered by the specification, sorted.
func (s *Spec) TaskNames() []string {
	names := make([]string, 0, len(s.Tasks))
	for name := range s.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PhasePoints returns the phase anchors defined for the task, ascending.
// Returns nil when the task is absent.
func (s *Spec) PhasePoints(task string) []int {
	tr, ok := s.Tasks[task]
	if !ok {
		return nil
	}
	points := make([]int, 0, len(tr.Phases))
	for p := range tr.Phases {
		points = append(points, p)
	}
	sort.Ints(points)
	return points
}

// Interval returns the interval for (task, phase, variable), or nil when
// any level is absent. Absence means unconstrained, not failing; callers
// must not treat a nil return as a violation.
func (s *Spec) Interval(task string, phase int, variable string) *Interval {
	tr, ok := s.Tasks[task]
	if !ok {
		return nil
	}
	pr, ok := tr.Phases[phase]
	if !ok {
		return nil
	}
	iv, ok := pr[variable]
	if !ok {
		return nil
	}
	return &iv
}

// Clone returns a deep copy of the specification.
func (s *Spec) Clone() *Spec {
	out := &Spec{
		Version: s.Version,
		Source:  s.Source,
		Method:  s.Method,
		Tasks:   make(map[string]TaskRanges, len(s.Tasks)),
	}
	if s.FeatureTypes != nil {
		out.FeatureTypes = make(map[string]string, len(s.FeatureTypes))
		for k, v := range s.FeatureTypes {
			out.FeatureTypes[k] = v
		}
	}
	for task, tr := range s.Tasks {
		ctr := TaskRanges{Phases: make(map[int]PhaseRanges, len(tr.Phases))}
		for phase, pr := range tr.Phases {
			cpr := make(PhaseRanges, len(pr))
			for variable, iv := range pr {
				cpr[variable] = iv
			}
			ctr.Phases[phase] = cpr
		}
		out.Tasks[task] = ctr
	}
	return out
}

// Merge layers override on top of base at entry level: an override
// task/phase/variable entry replaces the matching base entry, while
// entries unique to either side are preserved. Neither input is mutated.
func Merge(base, override *Spec) *Spec {
	out := base.Clone()
	if override == nil {
		return out
	}
	if override.Version != "" {
		out.Version = override.Version
	}
	if override.Source != "" {
		out.Source = override.Source
	}
	if override.Method != "" {
		out.Method = override.Method
	}
	for variable, ft := range override.FeatureTypes {
		if out.FeatureTypes == nil {
			out.FeatureTypes = make(map[string]string)
		}
		out.FeatureTypes[variable] = ft
	}
	for task, otr := range override.Tasks {
		tr, ok := out.Tasks[task]
		if !ok {
			tr = TaskRanges{Phases: make(map[int]PhaseRanges, len(otr.Phases))}
		}
		for phase, opr := range otr.Phases {
			pr, ok := tr.Phases[phase]
			if !ok {
				pr = make(PhaseRanges, len(opr))
			}
			for variable, iv := range opr {
				pr[variable] = iv
			}
			tr.Phases[phase] = pr
		}
		out.Tasks[task] = tr
	}
	return out
}
