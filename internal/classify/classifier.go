// Package classify reduces violation tensors to a small categorical
// palette for visualization and reporting. It trusts the validator's
// output and performs no range comparison of its own.
package classify

import (
	"fmt"
)

// Label is the per-(step, feature) category used for rendering.
type Label string

const (
	// LabelClean marks a step with no violation in any feature.
	LabelClean Label = "no_violation"

	// LabelThisFeature marks a step violating the feature under focus.
	LabelThisFeature Label = "violates_this_feature"

	// LabelOtherFeature marks a step clean in the focus feature but
	// violating at least one other.
	LabelOtherFeature Label = "violates_other_feature"
)

// ForFeature labels every step relative to one focus feature: the step
// gets LabelThisFeature when it violates the focus feature,
// LabelOtherFeature when it violates only other features, and
// LabelClean when its whole violation row is false.
func ForFeature(violations [][]bool, featureIndex int) ([]Label, error) {
	labels := make([]Label, len(violations))
	for step, row := range violations {
		if featureIndex < 0 || featureIndex >= len(row) {
			return nil, fmt.Errorf("classify: feature index %d out of range for %d features", featureIndex, len(row))
		}
		switch {
		case row[featureIndex]:
			labels[step] = LabelThisFeature
		case anyTrue(row):
			labels[step] = LabelOtherFeature
		default:
			labels[step] = LabelClean
		}
	}
	return labels, nil
}

// All applies ForFeature for every feature column independently,
// returning labels indexed [step][feature].
func All(violations [][]bool) [][]Label {
	if len(violations) == 0 {
		return nil
	}
	features := len(violations[0])
	out := make([][]Label, len(violations))
	for step, row := range violations {
		out[step] = make([]Label, features)
		for f := range row {
			switch {
			case row[f]:
				out[step][f] = LabelThisFeature
			case anyTrue(row):
				out[step][f] = LabelOtherFeature
			default:
				out[step][f] = LabelClean
			}
		}
	}
	return out
}

// Summary tallies label counts, plus per-step aggregate categories for
// the 2D case.
type Summary struct {
	// PerLabel counts individual (step, feature) labels.
	PerLabel map[Label]int

	// StepsClean counts steps whose every label is LabelClean.
	StepsClean int

	// StepsFlaggedThis counts steps with at least one LabelThisFeature.
	StepsFlaggedThis int

	// StepsFlaggedOther counts steps with at least one
	// LabelOtherFeature but no LabelThisFeature.
	StepsFlaggedOther int
}

func anyTrue(row []bool) bool {
	for _, v := range row {
		if v {
			return true
		}
	}
	return false
}

// SummarizeColumn tallies a single per-step label column.
func SummarizeColumn(labels []Label) Summary {
	s := Summary{PerLabel: make(map[Label]int, 3)}
	for _, l := range labels {
		s.PerLabel[l]++
		switch l {
		case LabelClean:
			s.StepsClean++
		case LabelThisFeature:
			s.StepsFlaggedThis++
		case LabelOtherFeature:
			s.StepsFlaggedOther++
		}
	}
	return s
}

// Summarize tallies a full [step][feature] label matrix.
func Summarize(labels [][]Label) Summary {
	s := Summary{PerLabel: make(map[Label]int, 3)}
	for _, row := range labels {
		clean, flaggedThis, flaggedOther := true, false, false
		for _, l := range row {
			s.PerLabel[l]++
			switch l {
			case LabelThisFeature:
				clean, flaggedThis = false, true
			case LabelOtherFeature:
				clean, flaggedOther = false, true
			}
		}
		switch {
		case clean:
			s.StepsClean++
		case flaggedThis:
			s.StepsFlaggedThis++
		case flaggedOther:
			s.StepsFlaggedOther++
		}
	}
	return s
}
