// Package models provides shared data models for the stridecheck public API.
package models

import (
	"time"
)

// Scorecard is the batch outcome summary: how many subject-task units
// were processed, skipped for shape, or failed. A config abort is
// all-or-nothing and reported separately.
type Scorecard struct {
	Processed    int  `json:"processed"`
	ShapeSkipped int  `json:"shape_skipped"`
	Failed       int  `json:"failed"`
	ConfigAbort  bool `json:"config_abort"`
}

// FeatureStat is the per-feature violation summary within one task.
type FeatureStat struct {
	Feature        string  `json:"feature"`
	StepsEvaluated int     `json:"steps_evaluated"`
	StepsViolating int     `json:"steps_violating"`
	ViolationRate  float64 `json:"violation_rate"`
}

// TaskSummary aggregates violation statistics for one task across
// subjects.
type TaskSummary struct {
	Task         string        `json:"task"`
	Subjects     int           `json:"subjects"`
	Steps        int           `json:"steps"`
	StepsClean   int           `json:"steps_clean"`
	Features     []FeatureStat `json:"features"`
	NotEvaluated []string      `json:"not_evaluated,omitempty"`
	PhasePoints  []int         `json:"phase_points,omitempty"`
}

// UnitOutcome is the external representation of one subject-task
// validation outcome.
type UnitOutcome struct {
	Subject    string `json:"subject"`
	Task       string `json:"task"`
	Steps      int    `json:"steps"`
	Violations int    `json:"violations"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ValidationReport is the structured summary produced after a batch
// validation run, consumed by reporting and plotting collaborators.
type ValidationReport struct {
	RunID         string        `json:"run_id"`
	Dataset       string        `json:"dataset,omitempty"`
	RangesVersion string        `json:"ranges_version,omitempty"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Scorecard     Scorecard     `json:"scorecard"`
	Tasks         []TaskSummary `json:"tasks"`
	Units         []UnitOutcome `json:"units,omitempty"`
}

// RunInfo is the external representation of a persisted validation run.
type RunInfo struct {
	ID            string    `json:"id"`
	Dataset       string    `json:"dataset"`
	RangesVersion string    `json:"ranges_version,omitempty"`
	Processed     int       `json:"processed"`
	ShapeSkipped  int       `json:"shape_skipped"`
	Failed        int       `json:"failed"`
	Violations    int       `json:"violations"`
	CreatedAt     time.Time `json:"created_at"`
}

// ErrorResponse is the external representation of errors.
type ErrorResponse struct {
	Error      string `json:"error"`
	Reason     string `json:"reason,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Code       int    `json:"code"`
}
